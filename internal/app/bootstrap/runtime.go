// Package bootstrap wires the process-level dependencies: databases, Redis
// and the session store built on top of them.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/mdental/practice-platform/internal/auth"
	appconfig "github.com/mdental/practice-platform/internal/config"
	"github.com/mdental/practice-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSessionStore picks Redis-backed sessions when a client is available
// and falls back to the in-process store otherwise.
func BuildSessionStore(client *redis.Client, logger *logging.Logger) auth.SessionStore {
	if logger == nil {
		logger = logging.Default()
	}
	if client != nil {
		logger.Info("sessions backed by redis")
		return auth.NewRedisSessionStore(client)
	}
	logger.Warn("redis not configured, sessions held in memory")
	return auth.NewMemorySessionStore()
}

// OpenDatabases opens the pgx pool used by the repositories and a
// database/sql handle over the same URL for the activity log.
func OpenDatabases(ctx context.Context, databaseURL string) (*pgxpool.Pool, *sql.DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping database: %w", err)
	}

	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: open sql db: %w", err)
	}
	return pool, sqlDB, nil
}
