package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabimport-cli/internal/utils"
)

// Global configuration structure.
type Global struct {
	// Dialect
	AutodetectFormat bool   `mapstructure:"autodetect_format" yaml:"autodetect_format"`
	Delimiter        string `mapstructure:"delimiter" yaml:"delimiter"`
	QuoteChar        string `mapstructure:"quotechar" yaml:"quotechar"`
	DoubleQuote      bool   `mapstructure:"doublequote" yaml:"doublequote"`
	EscapeChar       string `mapstructure:"escapechar" yaml:"escapechar"`
	Quoting          string `mapstructure:"quoting" yaml:"quoting"`
	SkipInitialSpace bool   `mapstructure:"skipinitialspace" yaml:"skipinitialspace"`

	// Import
	StrictNumeric bool   `mapstructure:"strict_numeric" yaml:"strict_numeric"`
	Encoding      string `mapstructure:"encoding" yaml:"encoding"`
	OutputFormat  string `mapstructure:"output_format" yaml:"output_format"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Path returns the config file location: cfgFile if set, otherwise
// ~/.tabimport/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabimport", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabimport/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABIMPORT")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("autodetect_format", true)
	v.SetDefault("delimiter", ",")
	v.SetDefault("quotechar", `"`)
	v.SetDefault("doublequote", true)
	v.SetDefault("escapechar", "")
	v.SetDefault("quoting", "Minimal")
	v.SetDefault("skipinitialspace", false)
	v.SetDefault("strict_numeric", false)
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("output_format", "summary")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".tabimport"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
