// Package config loads the nyaya configuration file.
//
// Values are resolved in increasing precedence: built-in defaults, the YAML
// file, NYAYA_* environment variables, then command-line flags (applied by
// the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/storage"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NYAYA_"

// Storage drivers.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// File is the on-disk configuration.
type File struct {
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Corpus  CorpusConfig  `yaml:"corpus"`
	Encoder ai.Config     `yaml:"encoder"`
	Server  ServerConfig  `yaml:"server"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig selects the storage driver and its location.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// CorpusConfig points at the spreadsheet the database is seeded from.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	CORSOrigin     string        `yaml:"cors_origin"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      float64       `yaml:"rate_limit"`
	Burst          int           `yaml:"burst"`
}

// Default returns the built-in configuration.
func Default() *File {
	return &File{
		Log:     LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Driver: DriverBadger, Path: "nyaya.db"},
		Corpus:  CorpusConfig{Path: "bns.xlsx"},
		Encoder: *ai.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			CORSOrigin:     "*",
			RequestTimeout: 30 * time.Second,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*File, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes and checks the configuration.
func (f *File) Validate() error {
	f.Storage.Driver = strings.ToLower(strings.TrimSpace(f.Storage.Driver))
	switch f.Storage.Driver {
	case DriverBadger, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownDriver, f.Storage.Driver)
	}

	f.Encoder.Normalize()
	if err := f.Encoder.Validate(); err != nil {
		return err
	}

	if f.Server.RateLimit < 0 || f.Server.Burst < 0 {
		return fmt.Errorf("%w: rate_limit and burst must not be negative", ErrInvalidConfig)
	}
	if f.Server.RequestTimeout < 0 {
		return fmt.Errorf("%w: request_timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (f *File) applyEnv() error {
	f.Log.Level = envOr("LOG_LEVEL", f.Log.Level)
	f.Log.Format = envOr("LOG_FORMAT", f.Log.Format)
	f.Storage.Driver = envOr("DRIVER", f.Storage.Driver)
	f.Storage.Path = envOr("DB", f.Storage.Path)
	f.Corpus.Path = envOr("CORPUS", f.Corpus.Path)
	f.Encoder.Tokenizer = envOr("TOKENIZER", f.Encoder.Tokenizer)
	f.Encoder.VocabPath = envOr("VOCAB", f.Encoder.VocabPath)
	f.Server.Addr = envOr("ADDR", f.Server.Addr)
	f.Server.CORSOrigin = envOr("CORS_ORIGIN", f.Server.CORSOrigin)

	var err error
	if f.Encoder.MaxLength, err = envInt("MAX_LENGTH", f.Encoder.MaxLength); err != nil {
		return err
	}
	if f.Server.Burst, err = envInt("BURST", f.Server.Burst); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "RATE_LIMIT"); v != "" {
		if f.Server.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("%w: %sRATE_LIMIT: %w", ErrInvalidConfig, EnvPrefix, err)
		}
	}
	if v := os.Getenv(EnvPrefix + "REQUEST_TIMEOUT"); v != "" {
		if f.Server.RequestTimeout, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("%w: %sREQUEST_TIMEOUT: %w", ErrInvalidConfig, EnvPrefix, err)
		}
	}
	if v := os.Getenv(EnvPrefix + "LOWERCASE"); v != "" {
		if f.Encoder.Lowercase, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("%w: %sLOWERCASE: %w", ErrInvalidConfig, EnvPrefix, err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, EnvPrefix, key, err)
	}
	return n, nil
}
