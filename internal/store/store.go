// Package store records computed reports in a SQL database so they can be
// listed and compared later. SQLite (pure Go) and PostgreSQL (pgx) are
// supported through database/sql.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/iwvelando/costing-forecast/pkg/constants"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrReportNotFound is returned when no report has the requested identifier.
var ErrReportNotFound = errors.New("report not found")

// ErrNonFiniteAmount is returned when a snapshot holds NaN or infinite amounts.
var ErrNonFiniteAmount = errors.New("report has amounts that are not finite")

// Store is a handle on the report database.
type Store struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// Open connects to the database for driver ("sqlite" or "postgres") and dsn
// and validates connectivity. SQLite databases get WAL journaling, foreign
// keys and a busy timeout.
func Open(ctx context.Context, logger *zap.Logger, driver, dsn string) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var sqlDriver string
	switch driver {
	case constants.StorageDriverSQLite:
		sqlDriver = "sqlite"
	case constants.StorageDriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == constants.StorageDriverSQLite {
		// One connection keeps the pragmas in force for every statement.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `
			PRAGMA journal_mode = WAL;
			PRAGMA foreign_keys = ON;
			PRAGMA busy_timeout = 5000;
		`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set sqlite pragmas: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	logger.Debug("opened report database",
		zap.String("op", "store.Open"),
		zap.String("driver", driver),
	)

	return &Store{db: db, driver: driver, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies every pending schema migration.
func (s *Store) Migrate(ctx context.Context) error {
	dialect := goose.DialectSQLite3
	if s.driver == constants.StorageDriverPostgres {
		dialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, s.db, fsys)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	for _, result := range results {
		s.logger.Info("applied migration",
			zap.String("op", "store.Migrate"),
			zap.String("migration", result.Source.Path),
			zap.Duration("duration", result.Duration),
		)
	}

	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != constants.StorageDriverPostgres {
		return query
	}
	var b strings.Builder
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
