package parser

import (
	"context"
	"fmt"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
	"github.com/KaramelBytes/tabimport-cli/internal/layout"
	"github.com/KaramelBytes/tabimport-cli/internal/logging"
	"github.com/KaramelBytes/tabimport-cli/internal/textio"
)

// delimitedParser reads delimited text tables in either layout. Files ending
// in .txt are treated exactly like .csv; the dialect decides the syntax.
type delimitedParser struct{}

func (delimitedParser) CanParse(filename string) bool {
	return hasExt(filename, ".csv", ".txt")
}

// Parse classifies the header first, then re-reads the file from the top
// with the matching layout parser.
func (delimitedParser) Parse(ctx context.Context, in Input) (*dataset.Matrix, error) {
	orientation, err := detectFile(in)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("layout detected", "orientation", orientation.String())

	f, err := textio.Open(in.Fs, in.Path, in.Charset)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", in.Path, err)
	}
	defer f.Close()

	opts := in.Options
	opts.Position = f.Counter.BytesRead
	opts.Size = f.Size
	if orientation == layout.SamplesInRows {
		return layout.ParseRows(ctx, f, in.Dialect, opts)
	}
	return layout.ParseColumns(ctx, f, in.Dialect, opts)
}

func detectFile(in Input) (layout.Orientation, error) {
	f, err := textio.Open(in.Fs, in.Path, in.Charset)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", in.Path, err)
	}
	defer f.Close()
	return layout.Detect(f, in.Dialect)
}
