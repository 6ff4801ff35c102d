package config

import "time"

// Config holds the configuration of the application
// Use config.LoadConfig to create a new instance
type Config struct {
	NLP     NLPConfig     `mapstructure:"nlp"     yaml:"nlp"     json:"nlp"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"   json:"store"`
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"  json:"server"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"     json:"api"`
	Log     LogConfig     `mapstructure:"log"     yaml:"log"     json:"log"`
	Auth    AuthConfig    `mapstructure:"auth"    yaml:"auth"    json:"auth"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
}

// NLPConfig configures the entity extraction server and the model used by the
// prediction pipeline.
type NLPConfig struct {
	ServerURL string `mapstructure:"server_url" yaml:"server_url" json:"server_url" jsonschema:"format=uri"`
	// Model is resolved against the closed set of model identifiers at request time.
	Model string `mapstructure:"model" yaml:"model" json:"model" jsonschema:"enum=en_streetninja,enum=en_core"`
	// Timeout bounds a single inference call. Zero disables the bound.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	// LoadTimeout bounds model metadata retrieval when a model is first loaded.
	LoadTimeout   time.Duration `mapstructure:"load_timeout"    yaml:"load_timeout"    json:"load_timeout"`
	MaxTextLength int           `mapstructure:"max_text_length" yaml:"max_text_length" json:"max_text_length"`
	// LanguageDetection enables statistical language detection. When false
	// every message is treated as English.
	LanguageDetection bool `mapstructure:"language_detection" yaml:"language_detection" json:"language_detection"`
}

type StoreConfig struct {
	Type     string         `mapstructure:"type"     yaml:"type"     json:"type" jsonschema:"enum=postgres"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres" json:"postgres"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn" json:"dsn"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host" json:"host"`
	Port int    `mapstructure:"port" yaml:"port" json:"port"`
	// MaxRequestBodySize is the maximum size of a request body in bytes.
	MaxRequestBodySize int64 `mapstructure:"max_request_body_size" yaml:"max_request_body_size" json:"max_request_body_size"`
}

// APIConfig holds settings that change the shape of API responses.
type APIConfig struct {
	// ErrorsAsOK sends error envelopes with a 200 status. Kept for SMS gateway
	// clients that only inspect the success flag.
	ErrorsAsOK bool `mapstructure:"errors_as_ok" yaml:"errors_as_ok" json:"errors_as_ok"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"  jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`
	Format string `mapstructure:"format" yaml:"format" json:"format" jsonschema:"enum=text,enum=json"`
}

type AuthConfig struct {
	Secret   string `mapstructure:"secret"   yaml:"secret"   json:"secret"`
	Required bool   `mapstructure:"required" yaml:"required" json:"required"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"      yaml:"enabled"      json:"enabled"`
	Endpoint    string `mapstructure:"endpoint"     yaml:"endpoint"     json:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"     yaml:"insecure"     json:"insecure"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name" json:"service_name"`
}
