package parser_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
	"github.com/KaramelBytes/tabimport-cli/internal/layout"
	"github.com/KaramelBytes/tabimport-cli/internal/parser"
)

type mapStore map[string]any

func (m mapStore) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapStore) SetMany(values map[string]any) error {
	for k, v := range values {
		m[k] = v
	}
	return nil
}

// openCountingFs records every attempt to open a file.
type openCountingFs struct {
	afero.Fs
	opens atomic.Int32
}

func (f *openCountingFs) Open(name string) (afero.File, error) {
	f.opens.Add(1)
	return f.Fs.Open(name)
}

func (f *openCountingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f.opens.Add(1)
	return f.Fs.OpenFile(name, flag, perm)
}

func memFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestImportRowLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/in/metabolites.csv", "Sample,Class,Glucose,2.05\ns1,A,1.0,2.0\ns2,.,9,9\ns3,B,3.0,4.0\n")
	im := &parser.Importer{Fs: fs, Store: mapStore{}, Autodetect: true}

	out, err := im.Import(context.Background(), "/in/metabolites.csv")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	m := out[parser.OutputName]
	if m == nil || len(out) != 1 {
		t.Fatalf("expected a single %q output, got %v", parser.OutputName, out)
	}
	if m.Name != "metabolites.csv" || m.Description != "Imported .csv file" {
		t.Fatalf("unexpected name/description: %q %q", m.Name, m.Description)
	}
	if _, err := uuid.Parse(m.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", m.ID)
	}
	if m.Samples() != 2 || m.Features() != 2 {
		t.Fatalf("unexpected shape %d×%d", m.Samples(), m.Features())
	}
	feat := m.Axes[dataset.FeatureAxis]
	if feat.Labels[0] != "Glucose" || feat.Labels[1] != "" || !feat.Scales[1].Valid || feat.Scales[1].Value != 2.05 {
		t.Fatalf("unexpected feature axis: %+v", feat)
	}
}

func TestImportColumnLayoutTXT(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/in/data.txt", "samples\ts1\ts2\ts3\nclass\tA\t.\tB\nm1\t1\t9\t3\n")
	im := &parser.Importer{Fs: fs, Store: mapStore{}, Autodetect: true}

	out, err := im.Import(context.Background(), "/in/data.txt")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	m := out[parser.OutputName]
	if got := m.Col(0); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected values %v", got)
	}
	if m.Description != "Imported .txt file" {
		t.Fatalf("unexpected description %q", m.Description)
	}
}

func TestImportRejectsUnsupportedWithoutOpening(t *testing.T) {
	fs := &openCountingFs{Fs: afero.NewMemMapFs()}
	for _, name := range []string{"/in/data.tsv", "/in/data.xlsx", "/in/data", "/in/upper.CSV", "/in/upper.TXT"} {
		memFile(t, fs.Fs, name, "sample,class,m1\ns1,A,1\n")
		im := &parser.Importer{Fs: fs, Store: mapStore{}, Autodetect: true}
		_, err := im.Import(context.Background(), name)
		if !errors.Is(err, parser.ErrUnsupportedFormat) {
			t.Fatalf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
	if n := fs.opens.Load(); n != 0 {
		t.Fatalf("unsupported files must not be opened, got %d opens", n)
	}
}

func TestImportQuotedCellsFollowedBySpace(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/in/a.csv", "\"sample\" ,\"class\" ,\"m1\"\n\"s1\" ,\"A\" ,1\n\"s2\" ,\"B\" ,2\n")
	im := &parser.Importer{Fs: fs}

	out, err := im.Import(context.Background(), "/in/a.csv")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	m := out[parser.OutputName]
	if m.Samples() != 2 || m.Features() != 1 {
		t.Fatalf("unexpected shape %d×%d", m.Samples(), m.Features())
	}
	if got := m.Axes[dataset.SampleAxis].Classes; got[0] != "A " || got[1] != "B " {
		t.Fatalf("unexpected classes %q", got)
	}
	if got := m.Col(0); got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected values %v", got)
	}
}

func TestImportRejectsUnknownHeader(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/in/x.csv", "id,class,m1\ns1,A,1\n")
	im := &parser.Importer{Fs: fs, Store: mapStore{}}
	_, err := im.Import(context.Background(), "/in/x.csv")
	if !errors.Is(err, parser.ErrIncorrectStructure) {
		t.Fatalf("expected ErrIncorrectStructure, got %v", err)
	}
}

func TestImportFallsBackWhenSniffingFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	// The NUL byte makes the sample non-text for the sniffer.
	memFile(t, fs, "/in/odd.csv", "sample;class;m1\ns1;A;\x00\ns2;B;2\n")
	store := mapStore{dialect.KeyDelimiter: ";"}
	im := &parser.Importer{Fs: fs, Store: store, Autodetect: true}

	out, err := im.Import(context.Background(), "/in/odd.csv")
	if err != nil {
		t.Fatalf("import should proceed with configured dialect: %v", err)
	}
	if got := out[parser.OutputName].Col(0); got[0] != 0 || got[1] != 2 {
		t.Fatalf("unexpected values %v", got)
	}
	if _, ok := store[dialect.KeyQuoteChar]; ok {
		t.Fatalf("failed detection must not persist settings: %v", store)
	}
}

func TestImportEmptyFileIsStructureError(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/in/empty.csv", "")
	im := &parser.Importer{Fs: fs, Store: mapStore{}, Autodetect: true}
	_, err := im.Import(context.Background(), "/in/empty.csv")
	if !errors.Is(err, parser.ErrIncorrectStructure) {
		t.Fatalf("expected ErrIncorrectStructure, got %v", err)
	}
}

func TestImportPersistsDetectedDialect(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/in/semi.csv", "sample;class;m1\ns1;A;1\ns2;B;2\n")
	store := mapStore{dialect.KeyEscapeChar: "\\"}
	im := &parser.Importer{Fs: fs, Store: store, Autodetect: true}
	if _, err := im.Import(context.Background(), "/in/semi.csv"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if store[dialect.KeyDelimiter] != ";" {
		t.Fatalf("detected delimiter not persisted: %v", store)
	}
	if store[dialect.KeyEscapeChar] != "\\" {
		t.Fatalf("escapechar must keep its configured value: %v", store)
	}
}

func TestImportReportsProgress(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.csv")
	content := []byte("sample,class,m1\n")
	for i := 0; i < 300; i++ {
		content = append(content, []byte("s,A,1.5\n")...)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reports []float64
	im := &parser.Importer{
		Store:    mapStore{},
		Progress: layout.ProgressFunc(func(f float64) { reports = append(reports, f) }),
	}
	out, err := im.Import(context.Background(), p)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if out[parser.OutputName].Samples() != 300 {
		t.Fatalf("unexpected samples %d", out[parser.OutputName].Samples())
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 progress reports, got %v", reports)
	}
	for _, f := range reports {
		if f <= 0 || f > 1 {
			t.Fatalf("progress out of range: %v", reports)
		}
	}
}

func TestImportUnknownCharset(t *testing.T) {
	im := &parser.Importer{Fs: afero.NewMemMapFs(), Charset: "nope-42"}
	if _, err := im.Import(context.Background(), "/in/a.csv"); err == nil {
		t.Fatal("expected charset error")
	}
}

func TestSupported(t *testing.T) {
	for name, want := range map[string]bool{"a.csv": true, "b.txt": true, "b.TXT": false, "e.Csv": false, "c.tsv": false, "d.csv.gz": false} {
		if got := parser.Supported(name); got != want {
			t.Errorf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}
