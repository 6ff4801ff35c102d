package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/streetninja/ninjabrain/internal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "NINJABRAIN"

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

var defaults = map[string]any{
	"nlp.server_url":               "http://localhost:5557",
	"nlp.model":                    "en_streetninja",
	"nlp.timeout":                  10 * time.Second,
	"nlp.load_timeout":             30 * time.Second,
	"nlp.max_text_length":          1600,
	"nlp.language_detection":       false,
	"store.type":                   "postgres",
	"store.postgres.dsn":           "",
	"server.host":                  "0.0.0.0",
	"server.port":                  8000,
	"server.max_request_body_size": 1 << 20,
	"api.errors_as_ok":             false,
	"log.level":                    "info",
	"log.format":                   "text",
	"auth.secret":                  "",
	"auth.required":                false,
	"metrics.enabled":              true,
	"tracing.enabled":              false,
	"tracing.endpoint":             "localhost:4318",
	"tracing.insecure":             true,
	"tracing.service_name":         "ninjabrain",
}

// LoadConfig loads the config file and ENV variables into a Config struct.
// A missing config.yaml is not an error when no file is named explicitly;
// defaults and ENV are used instead.
func LoadConfig(configFile string) (*Config, error) {
	// Environment variables take precedence over config file
	loadDotEnv()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Warn("config.yaml not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Debug(".env file not found or unable to load")
	}
}

// SetLogLevel sets the log level based on the config file. Defaults to INFO if not set or invalid
func SetLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)
	if cfg.Log.Format == "json" {
		internal.SetJSONFormat()
	}
	log.Info("Log level set to: ", level)
}

// Dump renders the config as YAML with secrets masked.
func Dump(cfg *Config) ([]byte, error) {
	masked := *cfg
	masked.Auth.Secret = internal.MaskSecret(cfg.Auth.Secret)
	masked.Store.Postgres.DSN = internal.MaskSecret(cfg.Store.Postgres.DSN)
	return yaml.Marshal(&masked)
}
