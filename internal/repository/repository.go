package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DBTX is an interface abstracting *sqlx.DB and *sqlx.Tx for repository use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

// rowScanner is satisfied by *sqlx.Row and *sqlx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// dialect captures the few SQL differences between the supported drivers.
type dialect string

const (
	dialectOracle   dialect = "oracle"
	dialectPostgres dialect = "postgres"
	dialectSQLite   dialect = "sqlite"
)

func dialectOf(driverName string) dialect {
	switch strings.ToLower(driverName) {
	case "oracle":
		return dialectOracle
	case "pgx", "postgres":
		return dialectPostgres
	default:
		return dialectSQLite
	}
}

// limit returns the row-limiting clause appended after ORDER BY.
func (d dialect) limit(n int) string {
	if n <= 0 {
		return ""
	}
	if d == dialectOracle {
		return fmt.Sprintf(" FETCH FIRST %d ROWS ONLY", n)
	}
	return fmt.Sprintf(" LIMIT %d", n)
}

// isUniqueViolation reports whether err comes from a unique index on any supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	// go-ora surfaces "ORA-00001: unique constraint ... violated"
	return strings.Contains(err.Error(), "ORA-00001")
}

// likePattern turns free text into a LIKE pattern matched with ESCAPE '\'.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}
