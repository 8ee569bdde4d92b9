// Package layout turns delimited measurement tables into labeled matrices.
//
// Two layouts are understood. In the row layout every record after the
// header is one sample:
//
//	sample,class,Glucose,Lactate
//	s1,A,1.0,2.0
//
// In the column layout the table is transposed: the first two records carry
// sample ids and classes and every following record is one feature:
//
//	x,s1,s2
//	x,A,B
//	Glucose,1.0,3.0
//
// A class of "." excludes a sample from the import in both layouts.
package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
)

// ExcludedClass marks a sample that is left out of the import.
const ExcludedClass = "."

// ProgressInterval is the number of input records between progress reports
// and context checks.
const ProgressInterval = 100

var (
	// ErrIncorrectStructure is returned when a table matches neither layout.
	ErrIncorrectStructure = errors.New("incorrect file structure")
	// ErrShapeMismatch is returned when column-layout feature records do not
	// contribute one value per retained sample.
	ErrShapeMismatch = fmt.Errorf("%w: feature values do not match retained samples", ErrIncorrectStructure)
	// ErrInvalidNumber is returned in strict mode for cells that are not numbers.
	ErrInvalidNumber = errors.New("invalid numeric cell")
)

// Orientation is how samples are laid out in a table.
type Orientation int

const (
	// SamplesInRows is the row layout: one sample per record.
	SamplesInRows Orientation = iota
	// SamplesInColumns is the column layout: one feature per record.
	SamplesInColumns
)

func (o Orientation) String() string {
	switch o {
	case SamplesInRows:
		return "samples-in-rows"
	case SamplesInColumns:
		return "samples-in-columns"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// Classify decides the layout from a header record. The first cell must
// mention "sample"; a second cell mentioning "class" selects the row layout,
// anything else the column layout.
func Classify(header []string) (Orientation, error) {
	if len(header) < 2 {
		return 0, fmt.Errorf("%w: header has %d cells", ErrIncorrectStructure, len(header))
	}
	if !strings.Contains(strings.ToLower(header[0]), "sample") {
		return 0, fmt.Errorf("%w: first header cell %q does not name samples", ErrIncorrectStructure, header[0])
	}
	if strings.Contains(strings.ToLower(header[1]), "class") {
		return SamplesInRows, nil
	}
	return SamplesInColumns, nil
}

// Detect reads exactly one record from r and classifies it.
func Detect(r io.Reader, d dialect.Dialect) (Orientation, error) {
	rr, err := dialect.NewReader(r, d)
	if err != nil {
		return 0, err
	}
	header, err := rr.Read()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: no header", ErrIncorrectStructure)
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	return Classify(header)
}

// ProgressSink receives the fraction of the input consumed so far.
type ProgressSink interface {
	Report(fraction float64)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(fraction float64)

// Report calls f.
func (f ProgressFunc) Report(fraction float64) { f(fraction) }

// Options controls a parse.
type Options struct {
	// Progress, if set, is notified every ProgressInterval records.
	Progress ProgressSink
	// Position returns the number of input bytes consumed so far.
	Position func() int64
	// Size is the total input size in bytes.
	Size int64
	// Strict rejects non-numeric cells instead of reading them as 0.
	Strict bool
}

type tracker struct {
	opts    Options
	records int
}

// next counts one input record, checking ctx and reporting progress at the
// interval.
func (t *tracker) next(ctx context.Context) error {
	t.records++
	if t.records%ProgressInterval != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.report()
	return nil
}

func (t *tracker) report() {
	o := t.opts
	if o.Progress == nil || o.Position == nil || o.Size <= 0 {
		return
	}
	// A failing sink never affects the parse.
	defer func() { _ = recover() }()
	f := float64(o.Position()) / float64(o.Size)
	if f > 1 {
		f = 1
	}
	o.Progress.Report(f)
}

// number parses a cell. Unparseable cells read as 0 unless strict.
func (o Options) number(cell string, record, column int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		return v, nil
	}
	if o.Strict {
		return 0, fmt.Errorf("%w: record %d, column %d: %q", ErrInvalidNumber, record, column, cell)
	}
	return 0, nil
}

// extraCells reports whether cells past width hold anything but blanks.
func extraCells(rec []string, width int) bool {
	for i := width; i < len(rec); i++ {
		if strings.TrimSpace(rec[i]) != "" {
			return true
		}
	}
	return false
}

func readHeader(rr *dialect.Reader, what string) ([]string, error) {
	rec, err := rr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing %s", ErrIncorrectStructure, what)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	return rec, nil
}
