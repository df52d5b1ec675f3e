package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN            string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL            string `env:"RABBITMQ_URL,required=true"`
	RedisURL               string `env:"REDIS_URL,required=true"`
	EmailAPIURL            string `env:"EMAIL_API_URL,required=true"`
	EmailAPIKey            string `env:"EMAIL_API_KEY,required=true"`
	WhatsAppAPIURL         string `env:"WHATSAPP_API_URL,required=true"`
	WhatsAppToken          string `env:"WHATSAPP_TOKEN,required=true"`
	RateLimitPerSec        int    `env:"RATE_LIMIT_PER_SEC,default=100"`
	EmailRateLimitPerSec   int    `env:"EMAIL_RATE_LIMIT_PER_SEC,default=0"`
	WARateLimitPerSec      int    `env:"WHATSAPP_RATE_LIMIT_PER_SEC,default=0"`
	WorkerConcurrency      int    `env:"WORKER_CONCURRENCY,default=16"`
	RetryScanIntervalSec   int    `env:"RETRY_SCAN_INTERVAL_SEC,default=15"`
	ExpirySweepIntervalSec int    `env:"EXPIRY_SWEEP_INTERVAL_SEC,default=300"`
	APIPort                int    `env:"API_PORT,default=8080"`
	LogLevel               string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
