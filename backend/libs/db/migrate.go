package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate applies all pending up migrations for the driver. The migrator owns
// its own connection because closing it closes the underlying *sql.DB.
func Migrate(driver, dsn string) error {
	m, err := newMigrator(driver, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate up: %w", err)
	}
	return nil
}

// Rollback reverts every applied migration.
func Rollback(driver, dsn string) error {
	m, err := newMigrator(driver, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate down: %w", err)
	}
	return nil
}

func newMigrator(driver, dsn string) (*migrate.Migrate, error) {
	var (
		dir     string
		dbName  string
		sqlName string
	)
	switch driver {
	case DriverPostgres, "postgres":
		dir, dbName, sqlName = "migrations/postgres", "pgx5", DriverPostgres
	case DriverSQLite, "sqlite3", "":
		dir, dbName, sqlName = "migrations/sqlite", "sqlite", DriverSQLite
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("db: open migrations: %w", err)
	}

	conn, err := sql.Open(sqlName, dsn)
	if err != nil {
		return nil, err
	}

	var target database.Driver
	if sqlName == DriverPostgres {
		target, err = pgxmigrate.WithInstance(conn, &pgxmigrate.Config{})
	} else {
		target, err = sqlitemigrate.WithInstance(conn, &sqlitemigrate.Config{})
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dbName, target)
	if err != nil {
		target.Close()
		return nil, fmt.Errorf("db: migrator: %w", err)
	}
	return m, nil
}
