package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedepot/internal/server/banlist"
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
		"endpoint_addr":         "www.example:9000",
		"redis_addr":            "redis:6379",
		"redis_password":        "redispass",
		"kafka_brokers":         []string{"kafka1:9092", "kafka2:9092"},
		"s3_access_key":         "user",
		"s3_secret_key":         "password",
		"s3_bucket":             "bucket",
		"s3_region":             "region",
		"s3_base_endpoint":      "base_endpoint",
		"plan_service_url":      "http://plans:8081/api/plans",
		"ollama_endpoint":       "http://ollama:11434",
		"moderation_model":      "llava:13b",
		"upload_tmp_dir":        "/var/tmp/uploads",
		"storage_unit_bytes":    1073741824,
		"confirm_timeout":       "90s",
		"confirm_poll_interval": "100ms",
		"ban_rules": []map[string]any{
			{"count": 3, "duration": "1 hour", "ttl": "1h", "reason": "test"},
		},
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddr)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "redispass", cfg.RedisPassword)
		assert.Equal(t, []string{"kafka1:9092", "kafka2:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, "user", cfg.S3AccessKey)
		assert.Equal(t, "password", cfg.S3SecretKey)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "http://plans:8081/api/plans", cfg.PlanServiceURL)
		assert.Equal(t, "http://ollama:11434", cfg.OllamaEndpoint)
		assert.Equal(t, "llava:13b", cfg.ModerationModel)
		assert.Equal(t, "/var/tmp/uploads", cfg.UploadTmpDir)
		assert.Equal(t, int64(1073741824), cfg.StorageUnitBytes)
		assert.Equal(t, 90*time.Second, cfg.ConfirmTimeout)
		assert.Equal(t, 100*time.Millisecond, cfg.ConfirmPollInterval)

		require.Len(t, cfg.BanRules, 1)
		assert.Equal(t, int64(3), cfg.BanRules[0].Count)
		assert.Equal(t, "1 hour", cfg.BanRules[0].Duration)
		assert.Equal(t, time.Hour, cfg.BanRules[0].TTL)
		assert.False(t, cfg.BanRules[0].Lifetime)
		assert.Equal(t, "test", cfg.BanRules[0].Reason)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddr: "defaults:1234",
			RedisAddr:    "redis-default:6379",
			KafkaBrokers: []string{"default:9092"},
			S3Bucket:     "s3bucket",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddr)
		assert.Equal(t, "redis-default:6379", cfg.RedisAddr)
		assert.Equal(t, []string{"default:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
	})

	t.Run("omitted slice keys keep defaults", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"endpoint_addr": "www.example:9000",
		})
		os.Args = []string{"testbin", "-config", partial}

		cfg := &Config{
			KafkaBrokers: []string{"default:9092"},
			BanRules:     banlist.DefaultRules(),
		}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddr)
		assert.Equal(t, []string{"default:9092"}, cfg.KafkaBrokers)
		assert.NotEmpty(t, cfg.BanRules)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
