package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var mirrorSchemaFS embed.FS

// migrateMirrorSchema brings the snapshot mirror up to the current
// schema. It runs on the repository's own connection, so migrate's
// Close must not be called here: it would tear down the shared handle.
func migrateMirrorSchema(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migration driver: %w", err)
	}

	src, err := iofs.New(mirrorSchemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("embedded schema source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply mirror schema: %w", err)
	}
	return src.Close()
}
