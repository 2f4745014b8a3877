// Package config loads tool-level defaults with Viper. Command-line
// flags always win over the config file.
package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds defaults for the dump pipeline.
type Config struct {
	Threads      int    `mapstructure:"threads"`
	OutputDir    string `mapstructure:"output_dir"`
	SkipErrors   bool   `mapstructure:"skip_errors"`
	WithImage    bool   `mapstructure:"with_image"`
	WithMetadata bool   `mapstructure:"with_metadata"`
	NoMusic      bool   `mapstructure:"no_music"`
	TagMP3       bool   `mapstructure:"tag_mp3"`
	Overwrite    bool   `mapstructure:"overwrite"`
	LogLevel     string `mapstructure:"log_level"`
	LogJSON      bool   `mapstructure:"log_json"`
}

// Load reads ncm-dumper.yaml from the usual locations. A missing
// config file is fine; defaults apply. Environment variables with the
// NCM prefix override the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("ncm-dumper")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.ncm-dumper")

	v.SetDefault("threads", runtime.NumCPU())
	v.SetDefault("output_dir", "")
	v.SetDefault("skip_errors", false)
	v.SetDefault("with_image", false)
	v.SetDefault("with_metadata", false)
	v.SetDefault("no_music", false)
	v.SetDefault("tag_mp3", false)
	v.SetDefault("overwrite", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetEnvPrefix("NCM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
