// Package database opens the configured storage backend, creates its schema
// and hands out the repositories built on it.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"
)

// Driver names the storage backend behind a DB.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// DB wraps either a pgxpool.Pool or a sqlite3 *sql.DB.
type DB struct {
	driver Driver
	pool   *pgxpool.Pool
	sqlDB  *sql.DB
}

// New opens a connection pool for databaseURL. postgres:// and postgresql://
// URLs use pgx; sqlite://<path> (or sqlite://:memory:) uses sqlite3.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	driver, err := DriverFor(databaseURL)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverPostgres:
		return newPostgres(ctx, databaseURL)
	default:
		return newSQLite(ctx, databaseURL)
	}
}

// DriverFor reports which backend serves databaseURL.
func DriverFor(databaseURL string) (Driver, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(databaseURL, "sqlite://"), strings.HasPrefix(databaseURL, "sqlite3://"):
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database URL scheme in %q", redact(databaseURL))
	}
}

func newPostgres(ctx context.Context, databaseURL string) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{driver: DriverPostgres, pool: pool}, nil
}

func newSQLite(ctx context.Context, databaseURL string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", SQLiteDSN(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One connection serialises writers and keeps :memory: databases shared.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{driver: DriverSQLite, sqlDB: sqlDB}, nil
}

// SQLiteDSN converts a sqlite:// URL into a go-sqlite3 DSN with foreign keys
// and a busy timeout enabled.
func SQLiteDSN(databaseURL string) string {
	path := strings.TrimPrefix(strings.TrimPrefix(databaseURL, "sqlite3://"), "sqlite://")
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=1&_busy_timeout=5000"
}

// NewFromSQL wraps an already opened sqlite3 handle.
func NewFromSQL(sqlDB *sql.DB) *DB {
	return &DB{driver: DriverSQLite, sqlDB: sqlDB}
}

// NewFromPool wraps an already opened pgx pool.
func NewFromPool(pool *pgxpool.Pool) *DB {
	return &DB{driver: DriverPostgres, pool: pool}
}

// Driver reports the backend in use.
func (db *DB) Driver() Driver {
	return db.driver
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.sqlDB != nil {
		db.sqlDB.Close()
	}
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.pool != nil {
		return db.pool.Ping(ctx)
	}
	return db.sqlDB.PingContext(ctx)
}

// Pool returns the underlying pgxpool.Pool, nil for SQLite.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// SQL returns the underlying *sql.DB, nil for Postgres.
func (db *DB) SQL() *sql.DB {
	return db.sqlDB
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
