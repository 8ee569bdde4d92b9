package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
)

// Schema returns the Arrow schema of m: sample and class string columns
// followed by one float64 column per feature. Unnamed or repeated feature
// names get a positional suffix.
func Schema(m *dataset.Matrix) *arrow.Schema {
	features := m.Axes[dataset.FeatureAxis]
	fields := make([]arrow.Field, 0, features.Len()+2)
	fields = append(fields,
		arrow.Field{Name: "sample", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "class", Type: arrow.BinaryTypes.String},
	)
	seen := map[string]bool{"sample": true, "class": true}
	for j := 0; j < features.Len(); j++ {
		name := features.Name(j)
		if name == "" || seen[name] {
			name = fmt.Sprintf("%s_%d", name, j+1)
		}
		seen[name] = true
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64})
	}
	return arrow.NewSchema(fields, nil)
}

// Table builds an Arrow table from m. The caller releases it.
func Table(m *dataset.Matrix, mem memory.Allocator) arrow.Table {
	schema := Schema(m)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	samples := m.Axes[dataset.SampleAxis]
	b.Field(0).(*array.StringBuilder).AppendValues(samples.Labels, nil)
	b.Field(1).(*array.StringBuilder).AppendValues(samples.Classes, nil)
	for j := 0; j < m.Features(); j++ {
		b.Field(j+2).(*array.Float64Builder).AppendValues(m.Col(j), nil)
	}
	rec := b.NewRecord()
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec})
}

// WriteParquet writes m as a Snappy-compressed Parquet file.
func WriteParquet(w io.Writer, m *dataset.Matrix) error {
	table := Table(m, memory.NewGoAllocator())
	defer table.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(table.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	if err := writer.WriteTable(table, table.NumRows()); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write parquet table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
