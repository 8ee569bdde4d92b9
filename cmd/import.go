package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabimport-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/tabimport-cli/internal/config"
	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
	"github.com/KaramelBytes/tabimport-cli/internal/export"
	"github.com/KaramelBytes/tabimport-cli/internal/layout"
	"github.com/KaramelBytes/tabimport-cli/internal/parser"
	"github.com/KaramelBytes/tabimport-cli/internal/utils"
)

var (
	impFormat     string
	impOutputPath string
	impDelimiter  string
	impQuoteChar  string
	impAutodetect bool
	impStrict     bool
	impEncoding   string
	impWatch      bool
	impQuiet      bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a .csv/.txt measurement table and render the matrix",
	Long: `Import reads a table whose first header cell names samples. A second header cell
naming classes means one sample per row; otherwise samples are read as columns.
Rows or columns whose class is "." are left out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		format := c.OutputFormat
		if cmd.Flags().Changed("format") {
			format = impFormat
		}
		if format == "" {
			format = "summary"
		}
		if format != "summary" {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if f.Binary() && impOutputPath == "" {
				return fmt.Errorf("%s output needs --output", f)
			}
		}
		im, err := newImporter(cmd, c)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		run := func() error {
			m, err := importWithProgress(ctx, im, path, cmd.ErrOrStderr(), impQuiet)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), m, format, impOutputPath)
		}
		if err := run(); err != nil && !impWatch {
			return err
		} else if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v\n", err)
		}
		if !impWatch {
			return nil
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "👀 Watching %s (Ctrl+C to stop)\n", filepath.Base(path))
		return watchFile(ctx, path, func() {
			if err := run(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v\n", err)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	addImportFlags(importCmd)
	importCmd.Flags().StringVarP(&impFormat, "format", "f", "summary", "output format: summary|json|yaml|csv|parquet")
	importCmd.Flags().StringVarP(&impOutputPath, "output", "o", "", "write output to this path instead of stdout")
	importCmd.Flags().BoolVarP(&impWatch, "watch", "w", false, "re-import whenever the file changes")
}

// addImportFlags registers the dialect and parsing flags shared by commands
// that import files.
func addImportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&impDelimiter, "delimiter", "", "field delimiter, e.g. ',' ';' 'tab' (disables autodetect)")
	cmd.Flags().StringVar(&impQuoteChar, "quotechar", "", "quote character (disables autodetect)")
	cmd.Flags().BoolVar(&impAutodetect, "autodetect", true, "sniff the dialect from the first 1024 bytes (default from config)")
	cmd.Flags().BoolVar(&impStrict, "strict", false, "fail on non-numeric cells instead of reading them as 0 (default from config)")
	cmd.Flags().StringVar(&impEncoding, "encoding", "", "input text encoding, e.g. utf-8, latin1, windows-1252 (default from config)")
	cmd.Flags().BoolVarP(&impQuiet, "quiet", "q", false, "suppress progress output")
}

// newImporter builds an importer from config, letting explicit flags win.
// Flag overrides apply to this run only; detected dialects are still saved.
func newImporter(cmd *cobra.Command, c *cfgpkg.Global) (*parser.Importer, error) {
	store := &overlayStore{ConfigStore: cfgpkg.NewStore(c, cfgFile), over: map[string]any{}}
	autodetect := c.AutodetectFormat
	f := cmd.Flags()
	if f.Changed("delimiter") {
		store.over[dialect.KeyDelimiter] = impDelimiter
		autodetect = false
	}
	if f.Changed("quotechar") {
		store.over[dialect.KeyQuoteChar] = impQuoteChar
		autodetect = false
	}
	if f.Changed("autodetect") {
		autodetect = impAutodetect
	}
	if _, err := dialect.FromStore(store); err != nil {
		return nil, err
	}
	strict := c.StrictNumeric
	if f.Changed("strict") {
		strict = impStrict
	}
	charset := c.Encoding
	if f.Changed("encoding") {
		charset = impEncoding
	}
	return &parser.Importer{
		Store:      store,
		Autodetect: autodetect,
		Charset:    charset,
		Strict:     strict,
	}, nil
}

// overlayStore answers Get from its overrides first.
type overlayStore struct {
	dialect.ConfigStore
	over map[string]any
}

func (s *overlayStore) Get(key string) (any, bool) {
	if v, ok := s.over[key]; ok {
		return v, true
	}
	return s.ConfigStore.Get(key)
}

// importWithProgress runs the import on a worker goroutine while another
// renders progress. Reports are dropped rather than block the parse.
func importWithProgress(ctx context.Context, im *parser.Importer, path string, progressOut io.Writer, quiet bool) (*dataset.Matrix, error) {
	progress := make(chan float64, 1)
	worker := *im
	worker.Progress = layout.ProgressFunc(func(f float64) {
		select {
		case progress <- f:
		default:
		}
	})

	var m *dataset.Matrix
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(progress)
		outs, err := worker.Import(gctx, path)
		if err != nil {
			return err
		}
		m = outs[parser.OutputName]
		return nil
	})
	g.Go(func() error {
		shown := false
		for f := range progress {
			if quiet {
				continue
			}
			fmt.Fprintf(progressOut, "\r⏳ %s %3.0f%%", filepath.Base(path), f*100)
			shown = true
		}
		if shown {
			fmt.Fprintln(progressOut)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// render writes m as format to outPath, or to w when outPath is empty.
func render(w io.Writer, m *dataset.Matrix, format, outPath string) error {
	var buf bytes.Buffer
	if format == "summary" {
		buf.WriteString(analysis.Summarize(m, analysis.DefaultOptions()).Markdown())
	} else {
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		if err := export.Write(&buf, m, f); err != nil {
			return err
		}
	}
	if outPath == "" {
		_, err := w.Write(buf.Bytes())
		return err
	}
	if err := utils.SafeWriteFile(outPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(w, "✓ Wrote %s (%d samples × %d features) to %s\n", format, m.Samples(), m.Features(), outPath)
	return nil
}
