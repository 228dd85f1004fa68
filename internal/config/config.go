// Package config loads service configuration from a YAML file, .env files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Blobs      BlobConfig       `yaml:"blobs"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Crossref   CrossrefConfig   `yaml:"crossref"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	CORSOrigin  string `yaml:"cors_origin"` // "*" allows any origin, "" disables CORS headers
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver     string `yaml:"driver"` // sqlite, postgres, mongo
	DSN        string `yaml:"dsn"`    // File path, connection string or MongoDB URI
	Database   string `yaml:"database,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

// BlobConfig selects where uploads are kept.
type BlobConfig struct {
	Backend         string `yaml:"backend"` // fs, gcs
	Dir             string `yaml:"dir"`
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
}

// SummarizerConfig configures remote summarization. An empty APIKey selects
// local extractive summaries.
type SummarizerConfig struct {
	APIKey        string        `yaml:"api_key,omitempty"`
	BaseURL       string        `yaml:"base_url"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	RateLimit     float64       `yaml:"rate_limit"`
	MaxInputChars int           `yaml:"max_input_chars"`
	MaxTokens     int           `yaml:"max_tokens"`
	Referer       string        `yaml:"referer,omitempty"`
	Title         string        `yaml:"title,omitempty"`
}

// HasCredential reports whether remote summarization is configured.
func (s SummarizerConfig) HasCredential() bool {
	return s.APIKey != ""
}

// CrossrefConfig configures DOI lookups.
type CrossrefConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Mailto    string        `yaml:"mailto,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
}

// SnapshotConfig configures scheduled JSONL snapshots. An empty Schedule
// disables them.
type SnapshotConfig struct {
	Schedule string `yaml:"schedule,omitempty"` // Cron spec, e.g. "@daily" or "0 3 * * *"
	Path     string `yaml:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	data := DataDir()
	return &Config{
		Server: ServerConfig{
			Addr:        ":5000",
			MaxUploadMB: 20,
			CORSOrigin:  "*",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(data, DBFile),
		},
		Blobs: BlobConfig{
			Backend: "fs",
			Dir:     filepath.Join(data, UploadsDir),
		},
		Summarizer: SummarizerConfig{
			BaseURL:       "https://openrouter.ai/api/v1",
			Model:         "openai/gpt-3.5-turbo",
			Timeout:       45 * time.Second,
			RateLimit:     2,
			MaxInputChars: 4000,
			MaxTokens:     500,
			Title:         "artman",
		},
		Crossref: CrossrefConfig{
			BaseURL:   "https://api.crossref.org",
			Timeout:   20 * time.Second,
			RateLimit: 5,
		},
		Snapshot: SnapshotConfig{
			Path: filepath.Join(data, "articles.jsonl"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file at path (or the default location when path is
// empty), applies environment overrides and validates the result.
// A missing default config file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides configuration from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("OPENAI_API_KEY", &c.Summarizer.APIKey)
	str("OPENAI_API_BASE", &c.Summarizer.BaseURL)
	str("OPENAI_MODEL", &c.Summarizer.Model)

	if v, ok := lookup("MONGODB_URI"); ok && v != "" {
		c.Store.Driver = "mongo"
		c.Store.DSN = v
	}
	str("ARTMAN_STORE_DRIVER", &c.Store.Driver)
	str("ARTMAN_STORE_DSN", &c.Store.DSN)

	str("ARTMAN_UPLOADS_DIR", &c.Blobs.Dir)
	if v, ok := lookup("ARTMAN_GCS_BUCKET"); ok && v != "" {
		c.Blobs.Backend = "gcs"
		c.Blobs.Bucket = v
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return &ConfigError{Field: "PORT", Message: fmt.Sprintf("not a port number: %q", v)}
		}
		c.Server.Addr = ":" + v
	}
	str("ARTMAN_ADDR", &c.Server.Addr)

	str("CROSSREF_MAILTO", &c.Crossref.Mailto)
	str("ARTMAN_LOG_LEVEL", &c.Log.Level)

	return nil
}

func (c *Config) expandPaths() {
	if c.Store.Driver == "sqlite" {
		c.Store.DSN = ExpandTilde(c.Store.DSN)
	}
	c.Blobs.Dir = ExpandTilde(c.Blobs.Dir)
	c.Blobs.CredentialsFile = ExpandTilde(c.Blobs.CredentialsFile)
	c.Snapshot.Path = ExpandTilde(c.Snapshot.Path)
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// The file may hold an API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Summarizer.APIKey != "" {
		c.Summarizer.APIKey = "****"
	}
	return c
}
