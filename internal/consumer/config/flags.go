package config

import (
	"flag"
	"os"
	"strings"

	"filedepot/internal/flagx"
)

// parseFlags populates selected consumer Config fields from command-line
// flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-k string   Kafka brokers, comma-separated
//	-q string   Kafka consumer group id
//	-r string   Redis address
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-o string   Ollama endpoint
//	-m string   enrichment model name
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-k", "-q", "-r", "-u", "-p", "-b", "-g", "-e", "-o", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	brokers := fs.String("k", strings.Join(config.KafkaBrokers, ","), "Kafka brokers (comma-separated)")

	fs.StringVar(&config.GroupID, "q", config.GroupID, "Kafka consumer group id")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.OllamaEndpoint, "o", config.OllamaEndpoint, "Ollama endpoint")
	fs.StringVar(&config.EnrichModel, "m", config.EnrichModel, "enrichment model name")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.KafkaBrokers = strings.Split(*brokers, ",")
}
