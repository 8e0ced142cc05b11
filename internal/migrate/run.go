// Package migrate applies the embedded schema migrations with golang-migrate.
//
// Every function takes ownership of db: the migrator closes it when done, so
// callers pass a dedicated handle rather than the application pool.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Version describes the schema state recorded by golang-migrate.
type Version struct {
	Version uint
	Dirty   bool
	// None is true when no migration has been applied yet.
	None bool
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate, err error) error {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		return errors.Join(err, srcErr, dbErr)
	}
	return err
}

// Run applies all pending up migrations. It is safe to call multiple times.
func Run(ctx context.Context, db *sql.DB) (err error) {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer func() { err = closeMigrator(m, err) }()

	logger := slog.Default().With("component", "migrations")
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	v, dirty, verr := m.Version()
	if verr == nil {
		logger.InfoContext(ctx, "schema up to date", "version", v, "dirty", dirty)
	}
	return nil
}

// Down rolls back steps migrations; steps <= 0 rolls back everything.
func Down(ctx context.Context, db *sql.DB, steps int) (err error) {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer func() { err = closeMigrator(m, err) }()

	if steps <= 0 {
		err = m.Down()
	} else {
		err = m.Steps(-steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	slog.Default().With("component", "migrations").InfoContext(ctx, "migrations rolled back", "steps", steps)
	return nil
}

// CurrentVersion reports the applied schema version.
func CurrentVersion(_ context.Context, db *sql.DB) (ver Version, err error) {
	m, err := newMigrator(db)
	if err != nil {
		return Version{}, err
	}
	defer func() { err = closeMigrator(m, err) }()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Version{None: true}, nil
	}
	if err != nil {
		return Version{}, fmt.Errorf("read schema version: %w", err)
	}
	return Version{Version: v, Dirty: dirty}, nil
}
