// Package db stores the history of poll runs and their attempts in SQLite
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"composewait/internal/logger"
)

const (
	driverName  = "sqlite3"
	pingTimeout = 5 * time.Second
	// Foreign keys are per connection, so they are enabled in the DSN rather
	// than with a one-off PRAGMA.
	dsnParams = "?_foreign_keys=on&_busy_timeout=5000"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is an open history database
type DB struct {
	*sqlx.DB
	path string
}

// Open connects to the SQLite database at path, creating its directory, and
// applies pending migrations
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	conn, err := sqlx.Open(driverName, path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// One writer per process; the recorder and the status server share it.
	conn.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open history database %s: %w", path, err)
	}

	database := &DB{DB: conn, path: path}
	if err := database.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	if state, err := database.GetCurrentVersion(ctx); err == nil {
		logger.WithFields(logger.Fields{"path": path, "schema_version": state.Version}).Debug("History database ready")
	}
	return database, nil
}

// Migrate applies pending schema migrations
func (db *DB) Migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db.DB.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %s: %w", db.path, err)
	}
	return nil
}

// Transaction runs fn in a transaction, rolling back when fn fails
func (db *DB) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
