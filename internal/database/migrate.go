package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"guardians/internal/config"
	"guardians/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations brings the schema of the configured driver up to date.
// Postgres and SQLite go through golang-migrate; Oracle runs the embedded scripts in order.
func RunMigrations(db *sql.DB, driver string) error {
	switch driver {
	case config.DriverPostgres:
		return migrateUp(db, driver)
	case config.DriverSQLite:
		return migrateUp(db, driver)
	case config.DriverOracle:
		return runOracleMigrations(db)
	}
	return fmt.Errorf("unsupported database driver %q", driver)
}

func migrateUp(db *sql.DB, driver string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}
	defer src.Close()

	var m *migrate.Migrate
	switch driver {
	case config.DriverPostgres:
		target, err := migratepgx.WithInstance(db, &migratepgx.Config{})
		if err != nil {
			return fmt.Errorf("could not create postgres migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "pgx5", target)
		if err != nil {
			return fmt.Errorf("could not create migrator: %w", err)
		}
	default:
		target, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("could not create sqlite migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite", target)
		if err != nil {
			return fmt.Errorf("could not create migrator: %w", err)
		}
	}
	// m.Close() would also close db, which the caller owns.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("could not read migration version: %w", err)
	}
	logger.Get().Info("Migrations completed successfully",
		zap.String("driver", driver),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

func runOracleMigrations(db *sql.DB) error {
	files, err := fs.Glob(migrationsFS, "migrations/oracle/*.up.sql")
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrationsFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", file, err)
		}

		for _, stmt := range SplitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("could not execute migration %s: %w", file, err)
			}
		}
		logger.Get().Info("Executed migration", zap.String("file", file))
	}

	logger.Get().Info("Migrations completed successfully", zap.String("driver", config.DriverOracle))
	return nil
}

// SplitStatements splits a script on statement-terminating semicolons.
// Oracle rejects a trailing ";" and multiple statements per Exec.
func SplitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
