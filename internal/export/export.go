// Package export renders an imported matrix in interchange formats.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
)

// Format is an output format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ErrUnknownFormat is returned for formats without a writer.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatCSV, FormatParquet:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Binary reports whether the format is unsuitable for a terminal.
func (f Format) Binary() bool { return f == FormatParquet }

// Write renders m to w in format f.
func Write(w io.Writer, m *dataset.Matrix, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, m)
	case FormatYAML:
		return WriteYAML(w, m)
	case FormatCSV:
		return WriteCSV(w, m)
	case FormatParquet:
		return WriteParquet(w, m)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// Document is the serialized form of a matrix.
type Document struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Samples     []Entry     `json:"samples" yaml:"samples"`
	Features    []Entry     `json:"features" yaml:"features"`
	Data        [][]float64 `json:"data" yaml:"data"`
}

// Entry is one position on an axis.
type Entry struct {
	Label  string   `json:"label,omitempty" yaml:"label,omitempty"`
	Scale  *float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Class  string   `json:"class,omitempty" yaml:"class,omitempty"`
	Entity string   `json:"entity,omitempty" yaml:"entity,omitempty"`
}

// NewDocument converts m to its serialized form.
func NewDocument(m *dataset.Matrix) Document {
	doc := Document{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Samples:     entries(m.Axes[dataset.SampleAxis]),
		Features:    entries(m.Axes[dataset.FeatureAxis]),
		Data:        make([][]float64, m.Samples()),
	}
	for i := range doc.Data {
		doc.Data[i] = m.Row(i)
	}
	return doc
}

func entries(a dataset.Axis) []Entry {
	out := make([]Entry, a.Len())
	for i := range out {
		out[i] = Entry{Label: a.Labels[i], Class: a.Classes[i], Entity: a.Entities[i]}
		if a.Scales[i].Valid {
			v := a.Scales[i].Value
			out[i].Scale = &v
		}
	}
	return out
}

// WriteJSON writes m as indented JSON. Infinite and NaN values cannot be
// represented and produce an error.
func WriteJSON(w io.Writer, m *dataset.Matrix) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(m)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML writes m as YAML.
func WriteYAML(w io.Writer, m *dataset.Matrix) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(m)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteCSV writes m in the row layout (sample, class, features...), which
// imports back to the same matrix.
func WriteCSV(w io.Writer, m *dataset.Matrix) error {
	cw := csv.NewWriter(w)
	features := m.Axes[dataset.FeatureAxis]
	header := make([]string, 0, features.Len()+2)
	header = append(header, "sample", "class")
	for j := 0; j < features.Len(); j++ {
		header = append(header, features.Name(j))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	samples := m.Axes[dataset.SampleAxis]
	row := make([]string, len(header))
	for i := 0; i < samples.Len(); i++ {
		row[0], row[1] = samples.Labels[i], samples.Classes[i]
		for j, v := range m.Row(i) {
			row[j+2] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
