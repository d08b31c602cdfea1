package main

import (
	"log/slog"
	"time"

	"github.com/bundlebay/giftcore/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"API_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	AdminToken    string  `env:"ADMIN_TOKEN" envDefault:""`
	CatalogURL    string  `env:"CATALOG_URL"`
	ThrottleRPS   float64 `env:"API_THROTTLE_RPS" envDefault:"20"`
	ThrottleBurst int     `env:"API_THROTTLE_BURST" envDefault:"40"`

	Postgres  config.PostgresConfig
	RateLimit config.RateLimitConfig
}
