package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJSON(t *testing.T) {
	t.Run("overlays present keys only", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"database_dsn": "/tmp/p.db",
			"session_ttl":  "90m",
			"s3_bucket":    "audit",
		})

		var cfg Config
		cfg.LoadDefaults()
		require.NoError(t, parseJSON(&cfg, []string{"-c", path}))

		assert.Equal(t, "/tmp/p.db", cfg.DatabaseDSN)
		assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
		assert.Equal(t, "audit", cfg.S3Bucket)
		assert.Equal(t, "sqlite", cfg.DatabaseDriver)
		assert.True(t, cfg.SeedDemoAccounts)
	})

	t.Run("integer nanoseconds", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"session_ttl": int64(time.Minute)})

		var cfg Config
		require.NoError(t, parseJSON(&cfg, []string{"-config", path}))
		assert.Equal(t, time.Minute, cfg.SessionTTL)
	})

	t.Run("no file flag leaves config", func(t *testing.T) {
		cfg := Config{LogLevel: "warn"}
		require.NoError(t, parseJSON(&cfg, []string{"-v", "debug"}))
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ not json`), 0o600))

		var cfg Config
		require.Error(t, parseJSON(&cfg, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		var cfg Config
		require.Error(t, parseJSON(&cfg, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})
}
