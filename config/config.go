// Package config resolves the converter settings from defaults, an optional
// config file, FOOTPOD_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the converter reads.
const EnvPrefix = "FOOTPOD"

// Config holds the effective converter settings.
type Config struct {
	Output        string    `mapstructure:"output" yaml:"output"`
	Overwrite     bool      `mapstructure:"overwrite" yaml:"overwrite"`
	SkipCRC       bool      `mapstructure:"skip_crc" yaml:"skip_crc"`
	Samples       string    `mapstructure:"samples" yaml:"samples,omitempty"`
	SamplesFormat string    `mapstructure:"samples_format" yaml:"samples_format,omitempty" validate:"omitempty,oneof=csv parquet"`
	Summary       bool      `mapstructure:"summary" yaml:"summary"`
	Log           LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig selects the stderr log handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"output":         "output",
	"overwrite":      "overwrite",
	"skip-crc":       "skip_crc",
	"samples":        "samples",
	"samples-format": "samples_format",
	"summary":        "summary",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("output", "-")
	v.SetDefault("overwrite", false)
	v.SetDefault("skip_crc", false)
	v.SetDefault("samples", "")
	v.SetDefault("samples_format", "")
	v.SetDefault("summary", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// RegisterFlags adds the conversion flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("output", "o", "-", "Output TCX path (- for stdout)")
	fs.Bool("overwrite", false, "Replace existing output files")
	fs.String("samples", "", "Also write one row per trackpoint to this path")
	fs.String("samples-format", "", "Samples format: csv|parquet (default from --samples extension)")
	fs.Bool("summary", false, "Print an activity summary to stderr")
}

// RegisterGlobalFlags adds the flags shared by every subcommand to fs.
func RegisterGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (yaml, toml or json)")
	fs.Bool("skip-crc", false, "Report CRC mismatches as warnings instead of failing")
	fs.String("log-level", "info", "Log level: debug|info|warn|error")
	fs.String("log-format", "text", "Log format: text|json")
}

// BindFlags binds every registered flag in fs to its config key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional config file at path and decodes and validates the
// merged settings.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SamplesFormat = strings.ToLower(strings.TrimSpace(cfg.SamplesFormat))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// YAML renders the settings as a config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
