package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/streetninja/ninjabrain/config"
)

// NewTestConfig returns a config with the defaults the service ships with,
// pointed at serverURL for the NLP server.
func NewTestConfig(serverURL string) *config.Config {
	return &config.Config{
		NLP: config.NLPConfig{
			ServerURL:     serverURL,
			Model:         "en_streetninja",
			Timeout:       2 * time.Second,
			LoadTimeout:   2 * time.Second,
			MaxTextLength: 1600,
		},
		Store: config.StoreConfig{Type: "postgres"},
		Server: config.ServerConfig{
			Host:               "127.0.0.1",
			Port:               8000,
			MaxRequestBodySize: 1 << 20,
		},
		Log:     config.LogConfig{Level: "warn", Format: "text"},
		Metrics: config.MetricsConfig{Enabled: true},
		Tracing: config.TracingConfig{ServiceName: "ninjabrain-test"},
	}
}

// RandomExternalID returns a positive message id.
func RandomExternalID() int64 {
	return gofakeit.Int64()&0x7fffffffffff + 1
}
