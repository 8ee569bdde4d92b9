package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabimport-cli/internal/config"
	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tabimport configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		store := cfgpkg.NewStore(c, cfgFile)
		out := cmd.OutOrStdout()
		for _, key := range cfgpkg.Keys() {
			v, _ := store.Get(key)
			switch key {
			case dialect.KeyDelimiter, dialect.KeyQuoteChar, dialect.KeyEscapeChar:
				r, err := dialect.ParseChar(fmt.Sprint(v))
				if err == nil {
					v = dialect.FormatChar(r)
				}
			}
			fmt.Fprintf(out, "%s: %v\n", key, v)
		}
		if path, err := cfgpkg.Path(cfgFile); err == nil {
			fmt.Fprintf(out, "# file: %s\n", path)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. Character settings accept "tab" and
"space"; escapechar may be set to "" to disable escaping.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := cfgpkg.NewStore(c, cfgFile).Set(key, val); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
