// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"time"

	"filedepot/internal/server/banlist"
)

// Config holds runtime settings for the upload server.
//
// Fields:
//   - EndpointAddr: bind address for the public HTTP endpoint.
//   - RedisAddr / RedisPassword: violation ledger and confirmation store.
//   - KafkaBrokers: bootstrap brokers for the event bus.
//   - S3AccessKey / S3SecretKey: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - PlanServiceURL: base URL of the subscription plan service.
//   - OllamaEndpoint / ModerationModel: local LLM used for content screening.
//   - UploadTmpDir: directory for buffering inbound uploads ("" = OS default).
//   - StorageUnitBytes: quota unit a plan multiplier is applied to.
//   - ConfirmTimeout / ConfirmPollInterval: bounded wait for the
//     post-upload confirmation marker.
//   - BanRules: violation-count escalation table.
type Config struct {
	EndpointAddr        string
	RedisAddr           string
	RedisPassword       string
	KafkaBrokers        []string
	S3AccessKey         string
	S3SecretKey         string
	S3Bucket            string
	S3Region            string
	S3BaseEndpoint      string
	PlanServiceURL      string
	OllamaEndpoint      string
	ModerationModel     string
	UploadTmpDir        string
	StorageUnitBytes    int64
	ConfirmTimeout      time.Duration
	ConfirmPollInterval time.Duration
	BanRules            []banlist.Rule
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPassword = ""
	c.KafkaBrokers = []string{"127.0.0.1:9092"}
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "files"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.PlanServiceURL = "http://127.0.0.1:8081/api/plans"
	c.OllamaEndpoint = "http://127.0.0.1:11434"
	c.ModerationModel = "llava"
	c.UploadTmpDir = ""
	c.StorageUnitBytes = 1 << 30
	c.ConfirmTimeout = 90 * time.Second
	c.ConfirmPollInterval = 100 * time.Millisecond
	c.BanRules = banlist.DefaultRules()
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
