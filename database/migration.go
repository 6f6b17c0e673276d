package database

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mbolis/quick-questionnaire/log"
	pkgerrors "github.com/pkg/errors"
)

//go:embed migrations
var dbMigrations embed.FS

func migrateDB(db *sql.DB) error {
	src, err := iofs.New(dbMigrations, "migrations")
	if err != nil {
		return pkgerrors.Wrap(err, "migrations source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return pkgerrors.Wrap(err, "migrations target")
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return pkgerrors.Wrap(err, "migrator")
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// db already up to date
	case err != nil:
		return pkgerrors.Wrap(err, "migrate up")
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return pkgerrors.Wrap(err, "schema version")
	}
	if dirty {
		return pkgerrors.Errorf("schema version %d is dirty", version)
	}
	log.Debugf("database.migrate: schema at version %d", version)
	return nil
}
