// Package store opens the article store selected by DATABASE_DRIVER.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"newsportal/internal/infra/adapter/persistence/memory"
	"newsportal/internal/infra/adapter/persistence/postgres"
	"newsportal/internal/infra/adapter/persistence/sqlite"
	"newsportal/internal/infra/db"
	"newsportal/internal/repository"
	"newsportal/internal/resilience/circuitbreaker"
)

// Store is an opened article store.
type Store struct {
	Repo repository.ArticleRepository
	// DB is nil for the memory driver.
	DB *sql.DB
	// Breaker guards Postgres calls. It is nil for other drivers.
	Breaker *circuitbreaker.DBCircuitBreaker
	Driver  string
}

// Open connects to the store, creates the schema when migrate is set and
// wires the driver's repository.
func Open(ctx context.Context, driver, dsn string, migrate bool, logger *slog.Logger) (*Store, error) {
	if driver == db.DriverMemory {
		logger.Warn("using in-memory article store, content is lost on restart")
		return &Store{Repo: memory.NewArticleRepo(), Driver: driver}, nil
	}

	conn, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.MigrateUp(conn, driver); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrate %s: %w", driver, err)
		}
	}

	s := &Store{DB: conn, Driver: driver}
	switch driver {
	case db.DriverPostgres:
		s.Breaker = circuitbreaker.NewDBCircuitBreaker(conn)
		s.Repo = postgres.NewArticleRepo(s.Breaker)
	case db.DriverSQLite:
		s.Repo = sqlite.NewArticleRepo(conn)
	}
	return s, nil
}

// Pinger returns what health checks should ping: the breaker for Postgres,
// the connection for SQLite and nil for the memory store.
func (s *Store) Pinger() interface {
	PingContext(ctx context.Context) error
} {
	switch {
	case s.Breaker != nil:
		return s.Breaker
	case s.DB != nil:
		return s.DB
	}
	return nil
}

// Close releases the connection, if any.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
