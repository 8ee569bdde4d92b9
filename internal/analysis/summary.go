package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
)

// Options controls report contents.
type Options struct {
	// MaxFeatures limits the features listed in the report; 0 means all.
	MaxFeatures int
	// ClassMeans adds per-class feature means.
	ClassMeans bool
}

// DefaultOptions returns reasonable defaults for matrix summaries.
func DefaultOptions() Options {
	return Options{MaxFeatures: 25, ClassMeans: true}
}

// Report is a markdown-friendly summary of an imported matrix.
type Report struct {
	Name        string
	Description string
	Samples     int
	Features    int
	Classes     []ClassCount
	Cols        []FeatureSummary
	Groups      []GroupResult
	Warnings    []string
}

// ClassCount is the number of samples carrying a class.
type ClassCount struct {
	Class string
	Count int
}

// FeatureSummary captures statistics per feature.
type FeatureSummary struct {
	Name  string
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
	Zeros int
}

// GroupResult captures per-class feature means.
type GroupResult struct {
	Class string
	Size  int
	Means []float64 // parallel to Report.Cols
}

// Summarize computes a Report for m.
func Summarize(m *dataset.Matrix, opt Options) *Report {
	rep := &Report{
		Name:        m.Name,
		Description: m.Description,
		Samples:     m.Samples(),
		Features:    m.Features(),
	}

	samples := m.Axes[dataset.SampleAxis]
	byClass := map[string][]int{}
	for i, c := range samples.Classes {
		byClass[c] = append(byClass[c], i)
	}
	for c, idx := range byClass {
		rep.Classes = append(rep.Classes, ClassCount{Class: c, Count: len(idx)})
	}
	sort.Slice(rep.Classes, func(i, j int) bool {
		if rep.Classes[i].Count == rep.Classes[j].Count {
			return rep.Classes[i].Class < rep.Classes[j].Class
		}
		return rep.Classes[i].Count > rep.Classes[j].Count
	})

	features := m.Axes[dataset.FeatureAxis]
	n := rep.Features
	if opt.MaxFeatures > 0 && n > opt.MaxFeatures {
		n = opt.MaxFeatures
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("showing %d of %d features", n, rep.Features))
	}
	allZero, nonFinite := 0, 0
	for j := 0; j < rep.Features; j++ {
		col := m.Col(j)
		zeros := 0
		for _, v := range col {
			if v == 0 {
				zeros++
			}
		}
		if zeros == len(col) {
			allZero++
		}
		if !finite(col) {
			nonFinite++
		}
		if j >= n {
			continue
		}
		mean, std := stat.MeanStdDev(col, nil)
		if len(col) < 2 {
			std = 0
		}
		rep.Cols = append(rep.Cols, FeatureSummary{
			Name:  features.Name(j),
			Min:   floats.Min(col),
			Max:   floats.Max(col),
			Mean:  mean,
			Std:   std,
			Zeros: zeros,
		})
	}
	if allZero > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d features are zero in every sample (non-numeric cells read as 0)", allZero))
	}

	if nonFinite > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d features hold infinite or NaN values", nonFinite))
	}

	if opt.ClassMeans && len(rep.Classes) > 1 {
		for _, cc := range rep.Classes {
			g := GroupResult{Class: cc.Class, Size: cc.Count, Means: make([]float64, n)}
			for j := 0; j < n; j++ {
				col := m.Col(j)
				vals := make([]float64, 0, cc.Count)
				for _, i := range byClass[cc.Class] {
					vals = append(vals, col[i])
				}
				g.Means[j] = stat.Mean(vals, nil)
			}
			rep.Groups = append(rep.Groups, g)
		}
	}
	return rep
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Description != "" {
		b.WriteString(fmt.Sprintf("Description: %s\n", r.Description))
	}
	b.WriteString(fmt.Sprintf("Samples: %d\n", r.Samples))
	b.WriteString(fmt.Sprintf("Features: %d\n\n", r.Features))

	b.WriteString("[CLASSES]\n")
	for _, c := range r.Classes {
		b.WriteString(fmt.Sprintf("- %s: %d\n", safeName(c.Class), c.Count))
	}

	b.WriteString("\n[FEATURES]\n")
	for _, c := range r.Cols {
		b.WriteString(fmt.Sprintf("- %s: min %.4g, max %.4g, mean %.4g, std %.4g", safeName(c.Name), c.Min, c.Max, c.Mean, c.Std))
		if c.Zeros > 0 {
			b.WriteString(fmt.Sprintf(" (zeros %d)", c.Zeros))
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[CLASS MEANS]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", safeName(g.Class), g.Size))
			// print up to 6 features
			for j := 0; j < len(g.Means) && j < 6 && j < len(r.Cols); j++ {
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g\n", safeName(r.Cols[j].Name), g.Means[j]))
			}
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

// finite reports whether every value is a finite number.
func finite(vals []float64) bool {
	for _, v := range vals {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
