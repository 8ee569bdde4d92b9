// Package dataset defines the labeled matrix produced by an import.
//
// A Matrix has two axes. Axis 0 holds samples, axis 1 holds features
// (metabolites, bins, ...). Each axis carries parallel lists of labels,
// numeric scales, classes and entity identifiers, one entry per position.
package dataset

import (
	"errors"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

const (
	// SampleAxis is the axis index of samples.
	SampleAxis = 0
	// FeatureAxis is the axis index of features.
	FeatureAxis = 1
)

var (
	// ErrAxisLength is returned when an axis list does not match the matrix dimension.
	ErrAxisLength = errors.New("axis length does not match data")
	// ErrEmpty is returned when a matrix would have no samples or no features.
	ErrEmpty = errors.New("dataset has no samples or no features")
)

// Scale is an optional numeric position on an axis, e.g. a chemical shift.
type Scale struct {
	Value float64
	Valid bool
}

// NewScale returns a valid Scale holding v.
func NewScale(v float64) Scale { return Scale{Value: v, Valid: true} }

func (s Scale) String() string {
	if !s.Valid {
		return ""
	}
	return strconv.FormatFloat(s.Value, 'g', -1, 64)
}

// Axis describes one dimension of a Matrix. An absent label, class or entity
// is the empty string; an absent scale is the zero Scale.
type Axis struct {
	Labels   []string
	Scales   []Scale
	Classes  []string
	Entities []string
}

// NewAxis returns an axis of length n with every entry absent.
func NewAxis(n int) Axis {
	return Axis{
		Labels:   make([]string, n),
		Scales:   make([]Scale, n),
		Classes:  make([]string, n),
		Entities: make([]string, n),
	}
}

// Len returns the number of positions on the axis.
func (a Axis) Len() int { return len(a.Labels) }

// Name returns a display name for position i: the label, or the scale when
// the label is absent.
func (a Axis) Name(i int) string {
	if a.Labels[i] != "" || !a.Scales[i].Valid {
		return a.Labels[i]
	}
	return a.Scales[i].String()
}

func (a Axis) check(n int, which string) error {
	for name, l := range map[string]int{
		"labels": len(a.Labels), "scales": len(a.Scales), "classes": len(a.Classes), "entities": len(a.Entities),
	} {
		if l != n {
			return fmt.Errorf("%w: %s axis has %d %s, want %d", ErrAxisLength, which, l, name, n)
		}
	}
	return nil
}

// Matrix is a dense numeric matrix of samples × features with labeled axes.
type Matrix struct {
	ID          string
	Name        string
	Description string
	Data        *mat.Dense
	Axes        [2]Axis
}

// New assembles a Matrix from row-major values, rejecting any shape
// inconsistency instead of building a partially filled structure.
func New(samples, features Axis, data []float64) (*Matrix, error) {
	r, c := samples.Len(), features.Len()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("%w (%d×%d)", ErrEmpty, r, c)
	}
	if len(data) != r*c {
		return nil, fmt.Errorf("%w: %d values for %d×%d", ErrAxisLength, len(data), r, c)
	}
	m := &Matrix{Data: mat.NewDense(r, c, data), Axes: [2]Axis{samples, features}}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that every axis list matches the data dimensions.
func (m *Matrix) Validate() error {
	if m == nil || m.Data == nil {
		return ErrEmpty
	}
	r, c := m.Data.Dims()
	if err := m.Axes[SampleAxis].check(r, "sample"); err != nil {
		return err
	}
	return m.Axes[FeatureAxis].check(c, "feature")
}

// Samples returns the number of samples (rows).
func (m *Matrix) Samples() int {
	r, _ := m.Data.Dims()
	return r
}

// Features returns the number of features (columns).
func (m *Matrix) Features() int {
	_, c := m.Data.Dims()
	return c
}

// Row returns a copy of the values of sample i.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.Data)
}

// Col returns a copy of the values of feature j.
func (m *Matrix) Col(j int) []float64 {
	return mat.Col(nil, j, m.Data)
}
