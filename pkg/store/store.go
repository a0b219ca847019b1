// Package store persists accounts, devices and their event history behind
// database/sql. Driver selection is by name so one binary serves embedded
// files (sqlite, genji, duckdb) and networked PostgreSQL (pgx) alike; all
// SQL stays portable and placeholders are rewritten per driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrNotFound is returned when an account or device does not exist.
var ErrNotFound = errors.New("store: not found")

// Config selects and locates the backing database.
type Config struct {
	Driver    string // sqlite, genji, pgx or duckdb
	Path      string // file path for embedded engines
	Host      string
	Port      int
	User      string
	Pass      string
	Name      string
	PGSSLMode string
}

// Store wraps the SQL connection together with the normalized driver name
// so query builders can stay declarative about placeholder styles.
type Store struct {
	DB     *sql.DB
	Driver string
}

func normalizeDriver(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Open connects, tunes the connection pool per engine and verifies
// liveness. Embedded engines are capped to a single physical connection so
// statements serialize at the pool instead of failing on file locks.
func Open(cfg Config) (*Store, error) {
	driver := normalizeDriver(cfg.Driver)
	var dsn string

	switch driver {
	case "sqlite", "genji", "duckdb":
		dsn = cfg.Path
		if dsn == "" {
			dsn = "telemetry." + driver
		}
	case "pgx":
		sslMode := cfg.PGSSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Name, sslMode)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	switch driver {
	case "sqlite", "genji", "duckdb":
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if driver == "sqlite" {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := tuneSQLite(ctx, db, log.Printf); err != nil {
				log.Printf("sqlite tuning skipped: %v", err)
			}
			cancel()
		}
	case "pgx":
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(4)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &Store{DB: db, Driver: driver}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error { return s.DB.Close() }

// rebind rewrites ?-style placeholders for drivers that number them.
func (s *Store) rebind(query string) string {
	if s.Driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// tuneSQLite applies the WAL and cache pragmas that keep single-connection
// access responsive. The steps run through a small channel pipeline so the
// caller goroutine stays free to time out.
func tuneSQLite(ctx context.Context, db *sql.DB, logf func(string, ...any)) error {
	type pragma struct {
		label     string
		query     string
		expectRow bool
	}
	steps := []pragma{
		{label: "journal_mode", query: "PRAGMA journal_mode=WAL;", expectRow: true},
		{label: "synchronous", query: "PRAGMA synchronous=NORMAL;"},
		{label: "temp_store", query: "PRAGMA temp_store=MEMORY;"},
		{label: "busy_timeout", query: "PRAGMA busy_timeout=5000;"},
	}

	jobs := make(chan pragma)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		for step := range jobs {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}
			if step.expectRow {
				var mode string
				if err := db.QueryRowContext(ctx, step.query).Scan(&mode); err != nil {
					errs <- fmt.Errorf("apply %s: %w", step.label, err)
					return
				}
				logf("sqlite tuning %s -> %s", step.label, mode)
				continue
			}
			if _, err := db.ExecContext(ctx, step.query); err != nil {
				errs <- fmt.Errorf("apply %s: %w", step.label, err)
				return
			}
		}
		errs <- nil
	}()

	go func() {
		defer close(jobs)
		for _, step := range steps {
			jobs <- step
		}
	}()

	return <-errs
}
