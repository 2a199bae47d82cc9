package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nyaya.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.Equal(t, "nyaya.db", cfg.Storage.Path)
	assert.Equal(t, ai.TokenizerWordPiece, cfg.Encoder.Tokenizer)
	assert.Equal(t, 128, cfg.Encoder.MaxLength)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Zero(t, cfg.Server.RateLimit)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
storage:
  driver: SQLite
  path: /var/lib/nyaya/sections.db
corpus:
  path: /srv/bns.xlsx
encoder:
  tokenizer: bpe
  vocab: /srv/cl100k_base.tiktoken
  max_length: 64
server:
  addr: 127.0.0.1:9090
  cors_origin: https://nyaya.example
  request_timeout: 5s
  rate_limit: 20
  burst: 40
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver, "driver is normalized")
	assert.Equal(t, "/var/lib/nyaya/sections.db", cfg.Storage.Path)
	assert.Equal(t, "/srv/bns.xlsx", cfg.Corpus.Path)
	assert.Equal(t, ai.TokenizerBPE, cfg.Encoder.Tokenizer)
	assert.Equal(t, "/srv/cl100k_base.tiktoken", cfg.Encoder.VocabPath)
	assert.Equal(t, 64, cfg.Encoder.MaxLength)
	assert.True(t, cfg.Encoder.Lowercase, "unset keys keep their defaults")
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "https://nyaya.example", cfg.Server.CORSOrigin)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 20.0, cfg.Server.RateLimit)
	assert.Equal(t, 40, cfg.Server.Burst)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  path: from-file.db
encoder:
  max_length: 64
`)
	t.Setenv("NYAYA_DB", "from-env.db")
	t.Setenv("NYAYA_MAX_LENGTH", "32")
	t.Setenv("NYAYA_LOWERCASE", "false")
	t.Setenv("NYAYA_RATE_LIMIT", "2.5")
	t.Setenv("NYAYA_REQUEST_TIMEOUT", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Storage.Path)
	assert.Equal(t, 32, cfg.Encoder.MaxLength)
	assert.False(t, cfg.Encoder.Lowercase)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, time.Minute, cfg.Server.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "storage: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Load(writeConfig(t, "storage:\n  driver: postgres\n"))
		assert.ErrorIs(t, err, storage.ErrUnknownDriver)
	})

	t.Run("unknown tokenizer", func(t *testing.T) {
		_, err := Load(writeConfig(t, "encoder:\n  tokenizer: sentencepiece\n"))
		assert.ErrorIs(t, err, ai.ErrUnknownTokenizer)
	})

	t.Run("negative burst", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  burst: -1\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("bad env integer", func(t *testing.T) {
		t.Setenv("NYAYA_MAX_LENGTH", "lots")
		_, err := Load("")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
