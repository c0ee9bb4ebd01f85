package postgres

import (
	"errors"
	"fmt"

	applogger "MarketMood/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies pending migrations from migrationsPath.
// A dirty schema is forced back to its recorded version before retrying.
func (c *Client) RunMigrations(l *applogger.Logger, migrationsPath string) error {
	driver, err := pgmigrate.WithInstance(c.db.DB, &pgmigrate.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration version: %w", err)
	}
	if dirty {
		l.Warn("database schema dirty, forcing version", applogger.Int("version", int(current)))
		if err := m.Force(int(current)); err != nil {
			return fmt.Errorf("force version %d: %w", current, err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			l.Info("schema up to date", applogger.Int("version", int(current)))
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	next, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	l.Info("migrations applied",
		applogger.Int("from_version", int(current)),
		applogger.Int("to_version", int(next)),
	)
	return nil
}
