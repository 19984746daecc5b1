// Package db opens the PostgreSQL connection pool and maintains the schema.
package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
// The defaults suit a single-instance deployment serving a handful of
// workspaces; tune through the DB_* environment variables for larger pools.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates the pgx connection pool from DATABASE_URL, applies the
// pool settings and verifies connectivity with a 5 second ping. It
// exits the process on failure, so callers get a usable pool or nothing.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}

	cfg := getConnectionConfigFromEnv()
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	slog.Info("database connection established successfully")
	return db
}

func poolInt(key string, target *int) {
	if raw := os.Getenv(key); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			*target = val
		}
	}
}

func poolDuration(key string, target *time.Duration) {
	if raw := os.Getenv(key); raw != "" {
		if val, err := time.ParseDuration(raw); err == nil && val > 0 {
			*target = val
		}
	}
}

// getConnectionConfigFromEnv overlays DB_* environment variables onto
// the defaults. Unset, malformed or non-positive values leave the
// default in place.
func getConnectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()

	poolInt("DB_MAX_OPEN_CONNS", &cfg.MaxOpenConns)
	poolInt("DB_MAX_IDLE_CONNS", &cfg.MaxIdleConns)
	poolDuration("DB_CONN_MAX_LIFETIME", &cfg.ConnMaxLifetime)
	poolDuration("DB_CONN_MAX_IDLE_TIME", &cfg.ConnMaxIdleTime)

	return cfg
}
