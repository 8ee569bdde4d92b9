package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabimport-cli/internal/config"
	"github.com/KaramelBytes/tabimport-cli/internal/logging"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagLogLevel  string
	flagLogFormat string

	// Loaded configuration
	cfg       *cfgpkg.Global
	cfgLoaded string
)

var rootCmd = &cobra.Command{
	Use:   "tabimport",
	Short: "tabimport: load metabolomics tables into labeled matrices",
	Long: `tabimport reads delimited measurement tables (.csv, .txt) with samples in rows or
in columns, detects the CSV dialect, and exports the resulting labeled matrix as a
summary, JSON, YAML, normalized CSV or Parquet.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabimport/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	cfgLoaded = cfgFile
}

// currentConfig returns the configuration for the active --config value,
// loading it if needed.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil && cfgLoaded == cfgFile {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	cfgLoaded = cfgFile
	return cfg, nil
}

func setupLogging() {
	level, format := "info", "text"
	if c, err := currentConfig(); err == nil {
		if c.LogLevel != "" {
			level = c.LogLevel
		}
		if c.LogFormat != "" {
			format = c.LogFormat
		}
	}
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagLogFormat != "" {
		format = flagLogFormat
	}
	if debug {
		level = "debug"
	}
	logging.Setup(level, format, os.Stderr)
}
