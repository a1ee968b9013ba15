package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// dialect is everything that differs between the two SQL engines.
type dialect struct {
	name        string
	sqlDriver   string
	gooseName   string
	placeholder sq.PlaceholderFormat
	pool        func(*sql.DB)
}

var dialects = map[string]dialect{
	"sqlite": {
		name:        "sqlite",
		sqlDriver:   "sqlite",
		gooseName:   "sqlite3",
		placeholder: sq.Question,
		// sqlite allows one writer; a single connection keeps our own calls
		// from tripping SQLITE_BUSY.
		pool: func(db *sql.DB) { db.SetMaxOpenConns(1) },
	},
	"postgres": {
		name:        "postgres",
		sqlDriver:   "pgx",
		gooseName:   "postgres",
		placeholder: sq.Dollar,
		pool: func(db *sql.DB) {
			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(2)
			db.SetConnMaxLifetime(30 * time.Minute)
		},
	},
}

func lookupDialect(driver string) (dialect, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	switch name {
	case "pgx":
		name = "postgres"
	case "sqlite3":
		name = "sqlite"
	}
	d, ok := dialects[name]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
	return d, nil
}

// SQLBackend keeps records in one table on sqlite or postgres. Every
// mutation also writes an audit_log row in the same transaction.
type SQLBackend struct {
	db      *sql.DB
	dialect string
	sql     sq.StatementBuilderType
}

func OpenSQL(ctx context.Context, driver, dsn string) (*SQLBackend, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, errors.New("dsn is empty")
	}

	db, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	d.pool(db)

	if err := prepare(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLBackend{
		db:      db,
		dialect: d.name,
		sql:     sq.StatementBuilder.PlaceholderFormat(d.placeholder),
	}, nil
}

func prepare(ctx context.Context, db *sql.DB, d dialect) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", d.name, err)
	}
	dir, err := fs.Sub(migrationsFS, "migrations/"+d.name)
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", d.name, err)
	}
	provider, err := goose.NewProvider(goose.Dialect(d.gooseName), db, dir)
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", d.name, err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run %s migrations: %w", d.name, err)
	}
	return nil
}

func (s *SQLBackend) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the pool for tests and maintenance.
func (s *SQLBackend) DB() *sql.DB {
	return s.db
}
