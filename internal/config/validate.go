package config

import (
	"errors"
	"fmt"
	"slices"
)

// ConfigError describes an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// IsConfigError reports whether err is a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

var (
	validDrivers    = []string{"sqlite", "postgres", "mongo"}
	validBackends   = []string{"fs", "gcs"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks the configuration. A missing summarizer API key is valid
// and selects local summaries.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return &ConfigError{Field: "server.addr", Message: "must not be empty"}
	}
	if c.Server.MaxUploadMB <= 0 {
		return &ConfigError{Field: "server.max_upload_mb", Message: "must be positive"}
	}

	if !slices.Contains(validDrivers, c.Store.Driver) {
		return &ConfigError{Field: "store.driver", Message: fmt.Sprintf("must be one of %v, got %q", validDrivers, c.Store.Driver)}
	}
	if c.Store.DSN == "" {
		return &ConfigError{Field: "store.dsn", Message: "must not be empty"}
	}

	if !slices.Contains(validBackends, c.Blobs.Backend) {
		return &ConfigError{Field: "blobs.backend", Message: fmt.Sprintf("must be one of %v, got %q", validBackends, c.Blobs.Backend)}
	}
	if c.Blobs.Backend == "fs" && c.Blobs.Dir == "" {
		return &ConfigError{Field: "blobs.dir", Message: "required for the fs backend"}
	}
	if c.Blobs.Backend == "gcs" && c.Blobs.Bucket == "" {
		return &ConfigError{Field: "blobs.bucket", Message: "required for the gcs backend"}
	}

	if c.Summarizer.Timeout <= 0 {
		return &ConfigError{Field: "summarizer.timeout", Message: "must be positive"}
	}
	if c.Summarizer.RateLimit <= 0 {
		return &ConfigError{Field: "summarizer.rate_limit", Message: "must be positive"}
	}
	if c.Summarizer.MaxInputChars <= 0 || c.Summarizer.MaxTokens <= 0 {
		return &ConfigError{Field: "summarizer", Message: "max_input_chars and max_tokens must be positive"}
	}

	if c.Crossref.BaseURL == "" {
		return &ConfigError{Field: "crossref.base_url", Message: "must not be empty"}
	}
	if c.Crossref.Timeout <= 0 {
		return &ConfigError{Field: "crossref.timeout", Message: "must be positive"}
	}
	if c.Crossref.RateLimit <= 0 {
		return &ConfigError{Field: "crossref.rate_limit", Message: "must be positive"}
	}

	if c.Snapshot.Schedule != "" && c.Snapshot.Path == "" {
		return &ConfigError{Field: "snapshot.path", Message: "required when a schedule is set"}
	}

	if !slices.Contains(validLogLevels, c.Log.Level) {
		return &ConfigError{Field: "log.level", Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, c.Log.Level)}
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return &ConfigError{Field: "log.format", Message: fmt.Sprintf("must be one of %v, got %q", validLogFormats, c.Log.Format)}
	}

	return nil
}
