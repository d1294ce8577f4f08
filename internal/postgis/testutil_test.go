package postgis

import (
	"context"
	"os"
	"strconv"
	"testing"

	"svc_gis/internal/logging"
)

// newTestDB returns a DB with no pool behind it. Validation paths return
// before any session is acquired, so these tests never touch a database.
func newTestDB() *DB {
	return &DB{log: logging.Component("postgis")}
}

// setupTestDB opens a connection to a local PostGIS instance and ensures
// the schema exists. Returns nil if no database is reachable.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := Config{
		Host:     envOr("POSTGRES_HOST", "localhost"),
		Port:     envIntOr("POSTGRES_PORT", 5432),
		Database: envOr("POSTGRES_DB", "gis"),
		User:     envOr("POSTGRES_USER", "svc_gis"),
		Password: envOr("POSTGRES_PASSWORD", "svc_gis"),
	}

	ctx := context.Background()
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil
	}

	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil
	}

	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
