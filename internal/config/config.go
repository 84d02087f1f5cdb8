// Package config loads the settings of the schemagen command from
// schemagen.yaml and SCHEMAGEN_ environment variables.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/i18n"
	"github.com/reoring/schemagen/internal/engine"
	"github.com/reoring/schemagen/jsonschema"
)

// Config represents the schemagen configuration.
type Config struct {
	Language   string           `mapstructure:"language"`
	Log        LogConfig        `mapstructure:"log"`
	JSONSchema JSONSchemaConfig `mapstructure:"jsonschema"`
	Validation ValidationConfig `mapstructure:"validation"`
	Generics   GenericsConfig   `mapstructure:"generics"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// JSONSchemaConfig represents JSON Schema rendering configuration.
type JSONSchemaConfig struct {
	Mode        string `mapstructure:"mode"`
	RefTemplate string `mapstructure:"ref_template"`
	Strict      bool   `mapstructure:"strict"`
	ByAlias     bool   `mapstructure:"by_alias"`
}

// ValidationConfig represents configuration of the reference validator.
type ValidationConfig struct {
	Strict        bool   `mapstructure:"strict"`
	DuplicateKeys string `mapstructure:"duplicate_keys"`
	MaxDepth      int    `mapstructure:"max_depth"`
	MaxBytes      int64  `mapstructure:"max_bytes"`
}

// GenericsConfig represents the parametrization cache configuration.
type GenericsConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// Load reads the configuration. file names a config file explicitly;
// when empty, schemagen.yaml (or .yml) in the working directory is used if
// present. Environment variables such as SCHEMAGEN_LOG_LEVEL override both.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("language", "en")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("jsonschema.mode", string(jsonschema.ModeValidation))
	v.SetDefault("jsonschema.ref_template", jsonschema.DefaultRefTemplate)
	v.SetDefault("jsonschema.strict", false)
	v.SetDefault("jsonschema.by_alias", true)
	v.SetDefault("validation.strict", false)
	v.SetDefault("validation.duplicate_keys", "error")
	v.SetDefault("validation.max_depth", 0)
	v.SetDefault("validation.max_bytes", 0)
	v.SetDefault("generics.cache_size", generics.DefaultLimit)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("schemagen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SCHEMAGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return errors.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	switch jsonschema.Mode(cfg.JSONSchema.Mode) {
	case jsonschema.ModeValidation, jsonschema.ModeSerialization:
	default:
		return errors.Errorf("jsonschema.mode must be validation or serialization, got: %s", cfg.JSONSchema.Mode)
	}
	if !strings.Contains(cfg.JSONSchema.RefTemplate, "{model}") {
		return errors.Errorf("jsonschema.ref_template must contain {model}, got: %s", cfg.JSONSchema.RefTemplate)
	}
	if _, ok := engine.ParseDuplicateStrictness(cfg.Validation.DuplicateKeys); !ok {
		return errors.Errorf("validation.duplicate_keys must be ignore, warn or error, got: %s", cfg.Validation.DuplicateKeys)
	}
	if cfg.Validation.MaxDepth < 0 || cfg.Validation.MaxBytes < 0 {
		return errors.New("validation limits must not be negative")
	}
	if cfg.Generics.CacheSize < 1 {
		return errors.Errorf("generics.cache_size must be positive, got: %d", cfg.Generics.CacheSize)
	}
	cfg.Language = i18n.Match(cfg.Language)
	return nil
}

// Logger builds the logger described by the log section. Output goes to
// stderr so that command output on stdout stays clean.
func (c *Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
