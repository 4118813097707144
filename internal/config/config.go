package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Config holds everything the reels service reads from the environment.
// DATABASE_URL is optional: without it the service runs on the in-memory
// repository, which is useful for local development. Kafka is optional
// the same way; the outbox publisher only starts when brokers are set.
type Config struct {
	Address        string `env:"ADDRESS" envDefault:":8080"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MediaRoot      string `env:"MEDIA_ROOT" envDefault:"./media"`
	BackendBaseURL string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8080"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	RunpodEndpointURL string `env:"RUNPOD_ENDPOINT_URL"`
	RunpodAPIKey      string `env:"RUNPOD_API_KEY"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"reel-events"`

	OutboxInterval  time.Duration `env:"OUTBOX_INTERVAL" envDefault:"5s"`
	OutboxBatchSize int           `env:"OUTBOX_BATCH_SIZE" envDefault:"50"`

	DispatcherWorkers int `env:"DISPATCHER_WORKERS" envDefault:"2"`
	DispatcherQueue   int `env:"DISPATCHER_QUEUE" envDefault:"16"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env if present, then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
