package parser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
	"github.com/KaramelBytes/tabimport-cli/internal/layout"
	"github.com/KaramelBytes/tabimport-cli/internal/logging"
	"github.com/KaramelBytes/tabimport-cli/internal/textio"
)

// OutputName is the key of the imported matrix in Outputs.
const OutputName = "output"

// Outputs holds the named results of an import.
type Outputs map[string]*dataset.Matrix

// Importer resolves a dialect for a file and parses it into a matrix.
type Importer struct {
	// Fs defaults to the OS filesystem.
	Fs    afero.Fs
	Store dialect.ConfigStore
	// Autodetect sniffs the dialect from the start of the file.
	Autodetect bool
	Charset    string
	Strict     bool
	Progress   layout.ProgressSink
}

// Import reads path and returns its matrix under OutputName. The extension
// is checked before the file is touched.
func (im *Importer) Import(ctx context.Context, path string) (Outputs, error) {
	p := lookup(path)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(path))
	}
	if _, err := textio.Lookup(im.Charset); err != nil {
		return nil, err
	}
	fs := im.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	id := uuid.NewString()
	ctx = logging.WithFields(ctx, "import_id", id, "file", filepath.Base(path))
	log := logging.FromContext(ctx)

	resolver := dialect.Resolver{Fs: fs, Store: im.Store, Decode: im.decode}
	d, err := resolver.Resolve(ctx, path, im.Autodetect)
	if err != nil {
		return nil, fmt.Errorf("resolve dialect: %w", err)
	}
	log.Debug("import started", "dialect", d.String(), "strict", im.Strict)

	m, err := p.Parse(ctx, Input{
		Fs:      fs,
		Path:    path,
		Dialect: d,
		Charset: im.Charset,
		Options: layout.Options{Progress: im.Progress, Strict: im.Strict},
	})
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	if m == nil || m.Validate() != nil {
		return nil, fmt.Errorf("import %s: %w", filepath.Base(path), ErrIncorrectStructure)
	}

	m.ID = id
	m.Name = filepath.Base(path)
	m.Description = fmt.Sprintf("Imported %s file", filepath.Ext(path))
	log.Info("import complete", "samples", m.Samples(), "features", m.Features())
	return Outputs{OutputName: m}, nil
}

func (im *Importer) decode(r io.Reader) io.Reader {
	dr, err := textio.Decode(r, im.Charset)
	if err != nil {
		return r
	}
	return dr
}
