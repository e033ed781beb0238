package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.EndpointAddr, ":8080")
	assert.Equal(t, c.RedisAddr, "127.0.0.1:6379")
	assert.Equal(t, c.KafkaBrokers, []string{"127.0.0.1:9092"})
	assert.Equal(t, c.S3AccessKey, "admin")
	assert.Equal(t, c.S3SecretKey, "secretpassword")
	assert.Equal(t, c.S3Bucket, "files")
	assert.Equal(t, c.S3Region, "us-east-1")
	assert.Equal(t, c.S3BaseEndpoint, "http://127.0.0.1:9000/")
	assert.Equal(t, c.PlanServiceURL, "http://127.0.0.1:8081/api/plans")
	assert.Equal(t, c.OllamaEndpoint, "http://127.0.0.1:11434")
	assert.Equal(t, c.StorageUnitBytes, int64(1<<30))
	assert.Equal(t, c.ConfirmTimeout, 90*time.Second)
	assert.Equal(t, c.ConfirmPollInterval, 100*time.Millisecond)
	require.Len(t, c.BanRules, 3)
	assert.Equal(t, c.BanRules[0].Count, int64(5))
	assert.True(t, c.BanRules[2].Lifetime)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, c.EndpointAddr, ":8080")
	assert.Equal(t, c.RedisAddr, "127.0.0.1:6379")
	assert.Equal(t, c.KafkaBrokers, []string{"127.0.0.1:9092"})
	assert.Equal(t, c.S3Bucket, "files")
	assert.Equal(t, c.S3Region, "us-east-1")
	assert.Equal(t, c.S3BaseEndpoint, "http://127.0.0.1:9000/")
	assert.Equal(t, c.ConfirmTimeout, 90*time.Second)
	assert.Equal(t, c.ConfirmPollInterval, 100*time.Millisecond)
}
