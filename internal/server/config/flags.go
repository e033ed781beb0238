package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"filedepot/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-r string   Redis address
//	-k string   Kafka brokers, comma-separated
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   plan service base URL
//	-o string   Ollama endpoint
//	-m string   moderation model name
//	-t int      confirmation wait timeout, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - The timeout flag is accepted as an integer in seconds and then converted
//     to a time.Duration value.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-k", "-u", "-p", "-b", "-g", "-e", "-l", "-o", "-m", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address")

	brokers := fs.String("k", strings.Join(config.KafkaBrokers, ","), "Kafka brokers (comma-separated)")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.PlanServiceURL, "l", config.PlanServiceURL, "plan service base URL")
	fs.StringVar(&config.OllamaEndpoint, "o", config.OllamaEndpoint, "Ollama endpoint")
	fs.StringVar(&config.ModerationModel, "m", config.ModerationModel, "moderation model name")

	confirmTimeout := fs.Int("t", int(config.ConfirmTimeout.Seconds()), "confirm_timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.KafkaBrokers = strings.Split(*brokers, ",")
	config.ConfirmTimeout = time.Duration(*confirmTimeout) * time.Second
}
