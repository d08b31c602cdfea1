package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RateLimitConfig tunes the gift-acceptance attempt counter.
// An empty RedisAddr keeps the counter process-local.
type RateLimitConfig struct {
	MaxAttempts int           `env:"GIFT_ACCEPT_MAX_ATTEMPTS" envDefault:"5"`
	Window      time.Duration `env:"GIFT_ACCEPT_WINDOW" envDefault:"10m"`
	RedisAddr   string        `env:"REDIS_ADDR" envDefault:""`
}
