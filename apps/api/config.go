package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	Env             string        `env:"APP_ENV" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	EmailVerificationURLTemplate string `env:"EMAIL_VERIFICATION_URL_TEMPLATE,required"`
	PaddlePublicKey              string `env:"PADDLE_PUBLIC_KEY,required"`

	JobsInterval time.Duration `env:"JOBS_INTERVAL" envDefault:"1m"`

	DeployTopicARN      string `env:"DEPLOY_TOPIC_ARN,required"`
	CommunicateTopicARN string `env:"COMMUNICATE_TOPIC_ARN,required"`
	UpdatesTopicARN     string `env:"UPDATES_TOPIC_ARN,required"`
}

func loadConfig() (config, error) {
	// .env files are a development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, err
	}
	return cfg, nil
}
