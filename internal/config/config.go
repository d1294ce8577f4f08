// Package config loads service configuration from the environment.
package config

import (
	"github.com/spf13/viper"

	"svc_gis/internal/postgis"
)

// NATS holds the flight-path queue settings.
type NATS struct {
	URL     string
	Subject string
	Workers int
}

// Config is the full service configuration.
type Config struct {
	LogLevel string
	HTTPPort int
	Postgres postgis.Config
	NATS     NATS
}

// Load reads configuration from environment variables, falling back to
// local development defaults.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_DB", "gis")
	v.SetDefault("POSTGRES_USER", "svc_gis")
	v.SetDefault("POSTGRES_PASSWORD", "svc_gis")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("NATS_SUBJECT", "gis.flight.path")
	v.SetDefault("NATS_WORKERS", 4)

	return Config{
		LogLevel: v.GetString("LOG_LEVEL"),
		HTTPPort: v.GetInt("HTTP_PORT"),
		Postgres: postgis.Config{
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetInt("POSTGRES_PORT"),
			Database: v.GetString("POSTGRES_DB"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
			MaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),
		},
		NATS: NATS{
			URL:     v.GetString("NATS_URL"),
			Subject: v.GetString("NATS_SUBJECT"),
			Workers: v.GetInt("NATS_WORKERS"),
		},
	}
}
