package layout

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
)

// ParseColumns parses a column-layout table. The first record holds sample
// ids and the second their classes, both after a leading label cell. Every
// further record is a feature label followed by one value per sample.
//
// Cells under an excluded sample are skipped, not stored. Every feature
// record must therefore supply exactly one value per retained sample;
// otherwise the parse fails with ErrShapeMismatch.
func ParseColumns(ctx context.Context, r io.Reader, d dialect.Dialect, opts Options) (*dataset.Matrix, error) {
	rr, err := dialect.NewReader(r, d)
	if err != nil {
		return nil, err
	}
	header, err := readHeader(rr, "sample header")
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: sample header has no sample columns", ErrIncorrectStructure)
	}
	ids := header[1:]
	width := len(header)

	classRow, err := readHeader(rr, "class header")
	if err != nil {
		return nil, err
	}
	if extraCells(classRow, width) {
		return nil, fmt.Errorf("%w: class header has %d cells, sample header has %d", ErrIncorrectStructure, len(classRow), width)
	}
	markers := make([]string, len(ids))
	if len(classRow) > 1 {
		copy(markers, classRow[1:])
	}

	var keep []int
	for i, m := range markers {
		if m != ExcludedClass {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("%w: every sample is excluded", ErrIncorrectStructure)
	}

	var (
		labels   []string
		data     []float64
		t        = tracker{opts: opts}
		record   = 2
		firstBad int
		badCount int
	)
	for {
		rec, err := rr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", record+1, err)
		}
		record++
		if err := t.next(ctx); err != nil {
			return nil, err
		}
		if extraCells(rec, width) {
			return nil, fmt.Errorf("%w: record %d has %d cells, header has %d", ErrIncorrectStructure, record, len(rec), width)
		}
		labels = append(labels, rec[0])
		n := 0
		for i, cell := range rec[1:] {
			if i >= len(markers) {
				break
			}
			if markers[i] == ExcludedClass {
				continue
			}
			v, err := opts.number(cell, record, i+2)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
			n++
		}
		if n != len(keep) && firstBad == 0 {
			firstBad, badCount = record, n
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no feature records", ErrIncorrectStructure)
	}
	if len(data) != len(labels)*len(keep) {
		return nil, fmt.Errorf("%w: %d values for %d features × %d samples (record %d has %d)",
			ErrShapeMismatch, len(data), len(labels), len(keep), firstBad, badCount)
	}

	// Accumulated feature-major; the matrix is sample-major.
	byFeature := mat.NewDense(len(labels), len(keep), data)
	bySample := mat.DenseCopyOf(byFeature.T())

	samples := dataset.NewAxis(len(keep))
	for i, col := range keep {
		samples.Labels[i] = ids[col]
		samples.Classes[i] = markers[col]
	}
	m, err := dataset.New(samples, partitionFeatures(labels), bySample.RawMatrix().Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncorrectStructure, err)
	}
	return m, nil
}
