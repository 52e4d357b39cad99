package database

import (
	"fmt"
	"time"

	"guardians/internal/config"
	"guardians/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver ("pgx")
	"github.com/jmoiron/sqlx"
	_ "github.com/sijms/go-ora/v2" // Oracle driver ("oracle")
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver ("sqlite")
)

func init() {
	// go-ora는 :name 형태의 바인드 변수를 사용
	sqlx.BindDriver("oracle", sqlx.NAMED)
}

// DriverName maps a configured db.driver onto the registered database/sql driver name.
func DriverName(driver string) (string, error) {
	switch driver {
	case config.DriverOracle:
		return "oracle", nil
	case config.DriverPostgres:
		return "pgx", nil
	case config.DriverSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// NewSQLXDB opens and pings a database for the configured driver.
func NewSQLXDB(driver, dsn string) (*sqlx.DB, error) {
	driverName, err := DriverName(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY
		// and keeps in-memory databases alive across calls.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	logger.Get().Info("Successfully connected to database", zap.String("driver", driver))
	return db, nil
}
