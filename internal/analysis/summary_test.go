package analysis

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
)

func fixture(t *testing.T) *dataset.Matrix {
	t.Helper()
	samples := dataset.NewAxis(3)
	samples.Labels = []string{"s1", "s2", "s3"}
	samples.Classes = []string{"A", "B", "A"}
	features := dataset.NewAxis(3)
	features.Labels = []string{"Glucose", "", "Blank"}
	features.Scales[1] = dataset.NewScale(2.05)
	m, err := dataset.New(samples, features, []float64{
		1, 10, 0,
		2, 20, 0,
		3, 30, 0,
	})
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	m.Name = "demo.csv"
	return m
}

func TestSummarize(t *testing.T) {
	rep := Summarize(fixture(t), DefaultOptions())
	if rep.Samples != 3 || rep.Features != 3 {
		t.Fatalf("unexpected shape %d×%d", rep.Samples, rep.Features)
	}
	if len(rep.Classes) != 2 || rep.Classes[0].Class != "A" || rep.Classes[0].Count != 2 {
		t.Fatalf("unexpected classes %+v", rep.Classes)
	}
	g := rep.Cols[0]
	if g.Name != "Glucose" || g.Min != 1 || g.Max != 3 || g.Mean != 2 || g.Std != 1 {
		t.Fatalf("unexpected glucose summary %+v", g)
	}
	if rep.Cols[1].Name != "2.05" {
		t.Fatalf("numeric feature should be named by its scale, got %q", rep.Cols[1].Name)
	}
	if rep.Groups[0].Means[0] != 2 || rep.Groups[1].Means[0] != 2 {
		t.Fatalf("unexpected class means %+v", rep.Groups)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "zero in every sample") {
		t.Fatalf("expected all-zero warning, got %v", rep.Warnings)
	}
}

func TestMarkdownSections(t *testing.T) {
	out := Summarize(fixture(t), Options{MaxFeatures: 1, ClassMeans: true}).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "File: demo.csv", "Samples: 3", "[CLASSES]", "- A: 2",
		"[FEATURES]", "- Glucose: min 1, max 3, mean 2, std 1", "[CLASS MEANS]", "showing 1 of 3 features",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
	if strings.Contains(out, "2.05") {
		t.Fatalf("feature limit not applied:\n%s", out)
	}
}

func TestClassMeansKeepDuplicateFeatureNames(t *testing.T) {
	samples := dataset.NewAxis(2)
	samples.Classes = []string{"A", "B"}
	features := dataset.NewAxis(4)
	features.Labels = []string{"Glc", "Glc", "", ""}
	m, err := dataset.New(samples, features, []float64{
		1, 100, 5, 7,
		2, 200, 6, 8,
	})
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	rep := Summarize(m, DefaultOptions())
	if len(rep.Groups) != 2 {
		t.Fatalf("expected two class groups, got %+v", rep.Groups)
	}
	a := rep.Groups[0]
	if a.Class != "A" || len(a.Means) != 4 {
		t.Fatalf("unexpected group %+v", a)
	}
	for j, want := range []float64{1, 100, 5, 7} {
		if a.Means[j] != want {
			t.Fatalf("feature %d: mean %v, want %v (all %v)", j, a.Means[j], want, a.Means)
		}
	}
	out := rep.Markdown()
	if strings.Count(out, "  • Glc: mean") != 4 {
		t.Fatalf("expected both Glc means for both classes:\n%s", out)
	}
}
