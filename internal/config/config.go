// Package config loads application configuration from config.yaml and
// REGISTRY_* environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Google       GoogleConfig       `yaml:"google" mapstructure:"google"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete" mapstructure:"autocomplete"`
	Data         DataConfig         `yaml:"data" mapstructure:"data"`
	Resolve      ResolveConfig      `yaml:"resolve" mapstructure:"resolve"`
	Dedupe       DedupeConfig       `yaml:"dedupe" mapstructure:"dedupe"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Google Maps API settings.
type GoogleConfig struct {
	APIKey    string  `yaml:"api_key" mapstructure:"api_key"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AutocompleteConfig configures the consumer autocomplete cross-reference
// service. An empty URL disables the step.
type AutocompleteConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// DataConfig locates the source files and the persisted registry.
type DataConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Output string `yaml:"output" mapstructure:"output"`
}

// ResolveConfig tunes the geocoding stage.
type ResolveConfig struct {
	CheckpointInterval int    `yaml:"checkpoint_interval" mapstructure:"checkpoint_interval"`
	Workers            int    `yaml:"workers" mapstructure:"workers"`
	CacheEnabled       bool   `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	CachePath          string `yaml:"cache_path" mapstructure:"cache_path"`
}

// DedupeConfig tunes the deduplication passes.
type DedupeConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	CoordPrecision      int     `yaml:"coord_precision" mapstructure:"coord_precision"`
}

// ServerConfig configures the read-only registry server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("REGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("google.rate_limit", 10.0)
	v.SetDefault("autocomplete.url", "https://www.bigbasket.com/places/v1/places/autocomplete/")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.output", "data/excluded.json")
	v.SetDefault("resolve.checkpoint_interval", 10)
	v.SetDefault("resolve.workers", 4)
	v.SetDefault("resolve.cache_enabled", true)
	v.SetDefault("resolve.cache_path", "data/geocode_cache.db")
	v.SetDefault("dedupe.similarity_threshold", 0.85)
	v.SetDefault("dedupe.coord_precision", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
