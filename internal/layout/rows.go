package layout

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
)

// ParseRows parses a row-layout table. The header's cells from index 2 on
// are feature labels; each following record is sample id, class, values.
// Records whose class is ExcludedClass are dropped. Short records read their
// missing cells as unparseable.
func ParseRows(ctx context.Context, r io.Reader, d dialect.Dialect, opts Options) (*dataset.Matrix, error) {
	rr, err := dialect.NewReader(r, d)
	if err != nil {
		return nil, err
	}
	header, err := readHeader(rr, "header")
	if err != nil {
		return nil, err
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("%w: header has no feature columns", ErrIncorrectStructure)
	}
	labels := header[2:]
	width := len(header)

	var (
		ids, classes []string
		data         []float64
		t            = tracker{opts: opts}
		record       = 1
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
		if len(rec) < 2 {
			return nil, fmt.Errorf("%w: record %d has %d cells", ErrIncorrectStructure, record, len(rec))
		}
		if extraCells(rec, width) {
			return nil, fmt.Errorf("%w: record %d has %d cells, header has %d", ErrIncorrectStructure, record, len(rec), width)
		}
		if rec[1] == ExcludedClass {
			continue
		}
		ids = append(ids, rec[0])
		classes = append(classes, rec[1])
		for j := 2; j < width; j++ {
			var cell string
			if j < len(rec) {
				cell = rec[j]
			}
			v, err := opts.number(cell, record, j+1)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrIncorrectStructure)
	}

	samples := dataset.NewAxis(len(ids))
	samples.Labels = ids
	samples.Classes = classes
	m, err := dataset.New(samples, partitionFeatures(labels), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncorrectStructure, err)
	}
	return m, nil
}
