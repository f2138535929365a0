package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	apperrors "seafoodpulse/internal/errors"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Store persists the combined market table and port summaries
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn using driver ("sqlite" or "pgx"). SQLite connections
// are limited to one so that ":memory:" databases are shared.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported store driver %q", driver), nil)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("open database", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;"} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, apperrors.NewStorageError("set "+pragma, err)
			}
		}
	}

	return &Store{db: db, driver: driver}, nil
}

// Driver returns the driver name the store was opened with
func (s *Store) Driver() string {
	return s.driver
}

// Ping verifies the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.driver == DriverPostgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewStorageError("migrate", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inTx runs fn inside a transaction, rolling back on error
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit", err)
	}
	return nil
}
