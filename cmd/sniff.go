package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabimport-cli/internal/config"
	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
	"github.com/KaramelBytes/tabimport-cli/internal/layout"
	"github.com/KaramelBytes/tabimport-cli/internal/textio"
	"github.com/KaramelBytes/tabimport-cli/internal/utils"
)

var sniffJSON bool

var sniffCmd = &cobra.Command{
	Use:   "sniff <file>",
	Short: "Detect the dialect and layout of a file without importing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		src, err := textio.Decode(f, c.Encoding)
		if err != nil {
			return err
		}
		sample, err := io.ReadAll(io.LimitReader(src, dialect.SampleSize))
		if err != nil {
			return fmt.Errorf("read sample: %w", err)
		}
		sniffed, err := dialect.Sniff(sample)
		if err != nil {
			return err
		}
		base, err := cfgpkg.NewStore(c, cfgFile).Dialect()
		if err != nil {
			return err
		}
		d := sniffed.Apply(base)

		// The sample is enough for the header unless it is a single huge row.
		orientation := "unknown"
		if o, err := layout.Detect(bytes.NewReader(sample), d); err == nil {
			orientation = o.String()
		}

		out := cmd.OutOrStdout()
		if sniffJSON {
			settings := sniffed.Settings()
			settings["layout"] = orientation
			b, err := utils.PrettyJSON(settings)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "delimiter: %s\n", dialect.FormatChar(d.Delimiter))
		fmt.Fprintf(out, "quotechar: %s\n", dialect.FormatChar(d.QuoteChar))
		fmt.Fprintf(out, "doublequote: %t\n", d.DoubleQuote)
		fmt.Fprintf(out, "skipinitialspace: %t\n", d.SkipInitialSpace)
		fmt.Fprintf(out, "quoting: %s\n", d.Quoting)
		fmt.Fprintf(out, "escapechar: %s\n", dialect.FormatChar(d.EscapeChar))
		fmt.Fprintf(out, "layout: %s\n", orientation)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sniffCmd)
	sniffCmd.Flags().BoolVar(&sniffJSON, "json", false, "print the detected settings as JSON")
}
