package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabimport-cli/internal/analysis"
	"github.com/KaramelBytes/tabimport-cli/internal/utils"
)

var (
	sumOutputDir   string
	sumMaxFeatures int
	sumClassMeans  bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <files...>",
	Short: "Import one or more tables and print a markdown summary of each",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		c, err := currentConfig()
		if err != nil {
			return err
		}
		im, err := newImporter(cmd, c)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if cmd.Flags().Changed("max-features") {
			opt.MaxFeatures = sumMaxFeatures
		}
		opt.ClassMeans = sumClassMeans

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !impQuiet && total > 1 {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			m, err := importWithProgress(cmd.Context(), im, path, cmd.ErrOrStderr(), impQuiet)
			if err != nil {
				return err
			}
			md := analysis.Summarize(m, opt).Markdown()
			if sumOutputDir == "" {
				fmt.Fprintln(out, md)
				continue
			}
			base := filepath.Base(path)
			safe := strings.TrimSuffix(base, filepath.Ext(base))
			outFile := filepath.Join(sumOutputDir, safe+".summary.md")
			if _, statErr := os.Stat(outFile); statErr == nil {
				idx := 2
				for {
					cand := filepath.Join(sumOutputDir, fmt.Sprintf("%s__%d.summary.md", safe, idx))
					if _, err := os.Stat(cand); os.IsNotExist(err) {
						if !impQuiet {
							fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Detected existing summary, writing to %s to avoid overwrite.\n", filepath.Base(cand))
						}
						outFile = cand
						break
					}
					idx++
				}
			}
			if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote summary to %s\n", outFile)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	addImportFlags(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumOutputDir, "output-dir", "o", "", "write <name>.summary.md files to this directory")
	summaryCmd.Flags().IntVar(&sumMaxFeatures, "max-features", 25, "maximum features listed per report (0 = all)")
	summaryCmd.Flags().BoolVar(&sumClassMeans, "class-means", true, "include per-class feature means")
}
