// Package storage is the self-hosted persistence layer for coach-hub.
//
// It implements the same contracts as the hosted REST backend
// (notifications.Store and upload.ProgramStore) on top of database/sql, for
// either an embedded SQLite file or a PostgreSQL server reached through pgx.
// The schema is embedded and applied on Open.
//
// Example usage:
//
//	store, err := storage.Open(cfg, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	items, err := notifications.NewReconciler(store, logger).Reconcile(ctx, actor)
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/common/logging"
	"coach-hub/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations
var migrationFiles embed.FS

// Dialect selects placeholder style and schema.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store implements notifications.Store and upload.ProgramStore with SQL.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  logging.Logger
	now     func() time.Time
}

// Open connects to the database named by cfg and applies migrations.
func Open(cfg *config.Config, logger logging.Logger) (*Store, error) {
	var (
		db      *sql.DB
		dialect Dialect
	)

	switch cfg.DatabaseType {
	case "sqlite":
		if cfg.DatabasePath == "" {
			return nil, errors.ConfigError("database path is required")
		}
		var err error
		db, err = sql.Open("sqlite3", sqliteDSN(cfg.DatabasePath))
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		// SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
		dialect = DialectSQLite

	case "postgres", "postgresql":
		pgConfig, err := pgx.ParseConfig(cfg.PostgresURL())
		if err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("invalid PostgreSQL settings: %v", err))
		}
		db = stdlib.OpenDB(*pgConfig)
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
		dialect = DialectPostgres

	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported database type: %s", cfg.DatabaseType))
	}

	store, err := New(db, dialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open database and applies migrations.
func New(db *sql.DB, dialect Dialect, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	s := &Store{db: db, dialect: dialect, logger: logger, now: time.Now}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_foreign_keys=on"
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Health pings the database
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect reports which database the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// migrate applies the embedded migrations not yet recorded in
// schema_migrations, in file name order.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return err
	}

	dir := path.Join("migrations", string(s.dialect))
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")

		var applied int
		if err := s.db.QueryRowContext(ctx,
			s.rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), version,
		).Scan(&applied); err != nil {
			return err
		}
		if applied > 0 {
			continue
		}

		script, err := migrationFiles.ReadFile(path.Join(dir, name))
		if err != nil {
			return err
		}
		for _, stmt := range splitStatements(string(script)) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s: %w", name, err)
			}
		}
		if _, err := s.db.ExecContext(ctx,
			s.rebind(`INSERT INTO schema_migrations (version) VALUES (?)`), version,
		); err != nil {
			return err
		}
		s.logger.Info("Applied database migration",
			logging.String("version", version),
			logging.String("dialect", string(s.dialect)),
		)
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
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

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// dbError wraps a database failure for callers; the message is what the
// upload result and logs show.
func dbError(op string, err error) error {
	return errors.UpstreamError(fmt.Sprintf("database error: %s: %v", op, err), err)
}
