package sqlstore

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func newMigrate(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init migrations")
	}
	return m, nil
}

// Migrate brings the schema to the latest version. It returns the version
// the schema is at afterwards.
func Migrate(dsn string) (uint, error) {
	m, err := newMigrate(dsn)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return 0, errors.Wrap(err, "failed to apply migrations")
	}

	version, _, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return 0, errors.Wrap(err, "failed to read schema version")
	}
	return version, nil
}

// MigrateDown reverts the last n migrations.
func MigrateDown(dsn string, n int) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-n); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "failed to revert migrations")
	}
	return nil
}
