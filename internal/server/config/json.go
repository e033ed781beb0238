package config

import (
	"encoding/json"
	"os"
	"time"

	"filedepot/internal/flagx"
	"filedepot/internal/server/banlist"
	"filedepot/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "90s" and integer nanoseconds.
//
// This struct is an intermediate DTO (Data Transfer Object) used only for
// reading JSON configuration files. After unmarshalling, its fields are
// copied into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr        string         `json:"endpoint_addr"`
	RedisAddr           string         `json:"redis_addr"`
	RedisPassword       string         `json:"redis_password"`
	KafkaBrokers        []string       `json:"kafka_brokers"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	PlanServiceURL      string         `json:"plan_service_url"`
	OllamaEndpoint      string         `json:"ollama_endpoint"`
	ModerationModel     string         `json:"moderation_model"`
	UploadTmpDir        string         `json:"upload_tmp_dir"`
	StorageUnitBytes    int64          `json:"storage_unit_bytes"`
	ConfirmTimeout      timex.Duration `json:"confirm_timeout"`
	ConfirmPollInterval timex.Duration `json:"confirm_poll_interval"`
	BanRules            []JsonBanRule  `json:"ban_rules"`
}

// JsonBanRule mirrors banlist.Rule for the config file.
type JsonBanRule struct {
	Count    int64          `json:"count"`
	Duration string         `json:"duration"`
	TTL      timex.Duration `json:"ttl"`
	Lifetime bool           `json:"lifetime"`
	Reason   string         `json:"reason"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// If the file path is found, parseJson attempts to read and unmarshal it
// into a JsonConfig. The resulting values are copied into the target Config.
// If the file cannot be read or contains invalid JSON, the function panics.
//
// The caller is expected to merge these values with defaults and
// command-line flags as part of the full configuration process.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.RedisAddr = c.RedisAddr
	config.RedisPassword = c.RedisPassword
	config.S3AccessKey = c.S3AccessKey
	config.S3SecretKey = c.S3SecretKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.PlanServiceURL = c.PlanServiceURL
	config.OllamaEndpoint = c.OllamaEndpoint
	config.ModerationModel = c.ModerationModel
	config.UploadTmpDir = c.UploadTmpDir

	// numeric fields keep their defaults when the file omits the key, so a
	// partial file cannot zero out an interval
	if c.StorageUnitBytes > 0 {
		config.StorageUnitBytes = c.StorageUnitBytes
	}
	if c.ConfirmTimeout.Duration > 0 {
		config.ConfirmTimeout = time.Duration(c.ConfirmTimeout.Duration)
	}
	if c.ConfirmPollInterval.Duration > 0 {
		config.ConfirmPollInterval = time.Duration(c.ConfirmPollInterval.Duration)
	}

	// slice fields keep their defaults when the file omits the key
	if len(c.KafkaBrokers) > 0 {
		config.KafkaBrokers = c.KafkaBrokers
	}
	if len(c.BanRules) > 0 {
		rules := make([]banlist.Rule, 0, len(c.BanRules))
		for _, r := range c.BanRules {
			rules = append(rules, banlist.Rule{
				Count:    r.Count,
				Duration: r.Duration,
				TTL:      r.TTL.Duration,
				Lifetime: r.Lifetime,
				Reason:   r.Reason,
			})
		}
		config.BanRules = rules
	}
}
