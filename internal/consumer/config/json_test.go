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

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"database_dsn":     "postgres://x",
		"kafka_brokers":    []string{"kafka1:9092"},
		"group_id":         "group-a",
		"redis_addr":       "redis:6379",
		"redis_password":   "redispass",
		"s3_access_key":    "user",
		"s3_secret_key":    "password",
		"s3_bucket":        "bucket",
		"s3_region":        "region",
		"s3_base_endpoint": "base_endpoint",
		"ollama_endpoint":  "http://ollama:11434",
		"enrich_model":     "llama3:8b",
		"confirm_ttl":      "2m",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, []string{"kafka1:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, "group-a", cfg.GroupID)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "redispass", cfg.RedisPassword)
		assert.Equal(t, "user", cfg.S3AccessKey)
		assert.Equal(t, "password", cfg.S3SecretKey)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "http://ollama:11434", cfg.OllamaEndpoint)
		assert.Equal(t, "llama3:8b", cfg.EnrichModel)
		assert.Equal(t, 2*time.Minute, cfg.ConfirmTTL)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			DatabaseDSN:  "postgres://default",
			KafkaBrokers: []string{"default:9092"},
			GroupID:      "default-group",
		}
		parseJson(cfg)

		assert.Equal(t, "postgres://default", cfg.DatabaseDSN)
		assert.Equal(t, []string{"default:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, "default-group", cfg.GroupID)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
