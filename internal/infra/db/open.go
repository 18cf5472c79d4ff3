package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"newsportal/internal/resilience/retry"
	"newsportal/pkg/config"
)

// Supported values of DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMemory   = "memory"
)

// SQLiteDriverName is the database/sql driver used for SQLite. Its
// connections carry fold(text), a Unicode lower-casing function, because
// LIKE and COLLATE NOCASE only fold ASCII.
const SQLiteDriverName = "sqlite3_portal"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// ErrUnsupportedDriver is returned for drivers that are not backed by database/sql.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// ConnectionConfig sizes the database/sql pool.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig suits a single api or worker process against Postgres.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open connects to the article store database and verifies the connection.
// The ping is retried with backoff so that the api and worker can start
// alongside a database that is still booting.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("open database: DATABASE_URL not set")
	}

	var sqlDriver string
	switch driver {
	case DriverPostgres:
		sqlDriver = "pgx"
	case DriverSQLite:
		sqlDriver = SQLiteDriverName
		dsn = SQLiteDSN(dsn)
	default:
		return nil, fmt.Errorf("open database: %w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := poolConfigFromEnv(slog.Default())
	if driver == DriverSQLite {
		// SQLite allows a single writer; extra connections only contend on the file lock.
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.String("driver", driver),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	err = retry.Run(ctx, retry.Startup(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connection established successfully", slog.String("driver", driver))
	return db, nil
}

// SQLiteDSN adds the pragmas the store relies on unless the DSN sets them:
// a busy timeout so readers wait for the writer, WAL journaling and foreign keys.
func SQLiteDSN(dsn string) string {
	params := []struct{ key, value string }{
		{"_busy_timeout", "5000"},
		{"_journal_mode", "WAL"},
		{"_foreign_keys", "on"},
	}
	for _, p := range params {
		if strings.Contains(dsn, p.key+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.key + "=" + p.value
	}
	return dsn
}

// poolConfigFromEnv reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME. Invalid values keep the
// default and are logged.
func poolConfigFromEnv(logger *slog.Logger) ConnectionConfig {
	def := DefaultConnectionConfig()
	f := config.NewFallbacks(logger, nil)
	conns := func(v int) error { return config.ValidateIntRange(v, 1, 10000) }

	cfg := ConnectionConfig{
		MaxOpenConns: config.Observe(f, "db_max_open_conns",
			config.Load("DB_MAX_OPEN_CONNS", def.MaxOpenConns, config.Int, conns)),
		MaxIdleConns: config.Observe(f, "db_max_idle_conns",
			config.Load("DB_MAX_IDLE_CONNS", def.MaxIdleConns, config.Int, conns)),
		ConnMaxLifetime: config.Observe(f, "db_conn_max_lifetime",
			config.Load("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, config.Duration, config.ValidatePositiveDuration)),
		ConnMaxIdleTime: config.Observe(f, "db_conn_max_idle_time",
			config.Load("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, config.Duration, config.ValidatePositiveDuration)),
	}
	f.Done()
	return cfg
}
