// Package config provides configuration loading for erpd.
//
// Configuration is merged from a YAML file and ERPD_-prefixed environment
// variables, with hardcoded defaults filling the gaps.
package config

import (
	"fmt"
	"net/url"
)

// Config holds the complete erpd configuration.
type Config struct {
	ERP       ERPConfig       `koanf:"erp"`
	HTTP      HTTPConfig      `koanf:"http"`
	NATS      NATSConfig      `koanf:"nats"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ERPConfig holds backend connection settings. BaseURL may stay empty at
// startup; the connect operation supplies connection details at runtime and
// file-based values act as the preconfigured default.
type ERPConfig struct {
	// BaseURL is the backend root, e.g. https://erp.example.com
	BaseURL string `koanf:"base_url"`

	// APIKey and APISecret enable token auth.
	APIKey    string `koanf:"api_key"`
	APISecret Secret `koanf:"api_secret"`

	// AccessToken enables OAuth2 bearer auth instead of key/secret.
	AccessToken Secret `koanf:"access_token"`

	// Timeout bounds each backend request.
	Timeout Duration `koanf:"timeout"`

	// RequestsPerSecond and RateBurst tune the outbound rate limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	RateBurst         int     `koanf:"rate_burst"`

	// InsecureSkipVerify disables TLS certificate verification for the
	// backend. File-level setting; connect overrides cannot enable it.
	InsecureSkipVerify bool `koanf:"insecure_skip_verify"`
}

// HTTPConfig holds the health/metrics sidecar settings.
type HTTPConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// NATSConfig holds audit trail publishing settings.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
}

// TelemetryConfig holds OTLP export settings.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
	Insecure    bool    `koanf:"insecure"`
}

// LoggingConfig holds the logging knobs surfaced in the config file. The
// logging package owns the full configuration; these map onto it at startup.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ERP.BaseURL != "" {
		u, err := url.Parse(c.ERP.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("erp.base_url must be an absolute URL, got %q", c.ERP.BaseURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("erp.base_url scheme must be http or https, got %q", u.Scheme)
		}
	}
	if c.ERP.APIKey != "" && !c.ERP.APISecret.IsSet() {
		return fmt.Errorf("erp.api_secret is required when erp.api_key is set")
	}
	if c.ERP.RequestsPerSecond < 0 {
		return fmt.Errorf("erp.requests_per_second must be >= 0, got %v", c.ERP.RequestsPerSecond)
	}
	if c.ERP.RateBurst < 0 {
		return fmt.Errorf("erp.rate_burst must be >= 0, got %d", c.ERP.RateBurst)
	}

	if c.HTTP.Enabled {
		if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
			return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
		}
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http/protobuf" {
			return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol)
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %v", c.Telemetry.SampleRate)
		}
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	return nil
}
