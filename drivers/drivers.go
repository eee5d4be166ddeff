// Package drivers registers the database/sql drivers for every supported
// dialect and opens validated connections. Importing it is enough to make
// the drivers available:
//
//	db, dialect, err := drivers.Open(ctx, drivers.Config{
//	    Dialect: "postgres",
//	    DSN:     "postgres://app@localhost/app?sslmode=disable",
//	})
//
// The returned dialect is the one the Assembler must be created with.
package drivers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/mysql"
	"github.com/asaidimu/go-crudsql/postgres"
	"github.com/asaidimu/go-crudsql/sqlite"
	"github.com/asaidimu/go-crudsql/sqlserver"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
	_ "github.com/microsoft/go-mssqldb" // registers "sqlserver"
	"github.com/microsoft/go-mssqldb/msdsn"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// Driver names registered with database/sql.
const (
	DriverPgx          = "pgx"
	DriverMySQL        = "mysql"
	DriverSQLServer    = "sqlserver"
	DriverSQLite       = "sqlite"  // modernc.org/sqlite, pure Go
	DriverSQLiteCgo    = "sqlite3" // mattn/go-sqlite3, requires cgo
	defaultIdleTimeout = 5 * time.Minute
)

// Config describes one database connection.
type Config struct {
	// Dialect is sqlite, postgres, mysql or sqlserver. Common aliases such as
	// postgresql, mariadb and mssql are accepted.
	Dialect string `json:"dialect" yaml:"dialect"`
	// DSN is passed to the driver unchanged after validation.
	DSN string `json:"dsn" yaml:"dsn"`
	// Driver overrides the database/sql driver name, e.g. sqlite3 to use the
	// cgo SQLite driver instead of the pure Go one.
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`

	MaxOpenConns    int           `json:"maxOpenConns,omitempty" yaml:"maxOpenConns,omitempty"`
	MaxIdleConns    int           `json:"maxIdleConns,omitempty" yaml:"maxIdleConns,omitempty"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime,omitempty" yaml:"connMaxLifetime,omitempty"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime,omitempty" yaml:"connMaxIdleTime,omitempty"`
}

// Canonical returns the dialect name a Config.Dialect alias stands for.
func Canonical(dialect string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "sqlite", "sqlite3":
		return sqlite.Name, nil
	case "postgres", "postgresql", "pgx":
		return postgres.Name, nil
	case "mysql", "mariadb":
		return mysql.Name, nil
	case "sqlserver", "mssql":
		return sqlserver.Name, nil
	}
	return "", fmt.Errorf("unsupported dialect %q (must be sqlite, postgres, mysql or sqlserver)", dialect)
}

// Dialect returns the SQL dialect for a dialect name or alias.
func Dialect(name string) (query.Dialect, error) {
	canonical, err := Canonical(name)
	if err != nil {
		return nil, err
	}
	switch canonical {
	case sqlite.Name:
		return sqlite.NewSqliteQuery(), nil
	case postgres.Name:
		return postgres.NewPostgresQuery(), nil
	case mysql.Name:
		return mysql.NewMySQLQuery(), nil
	default:
		return sqlserver.NewSQLServerQuery(), nil
	}
}

// DriverName returns the database/sql driver cfg opens.
func (cfg Config) DriverName() (string, error) {
	if cfg.Driver != "" {
		return cfg.Driver, nil
	}
	canonical, err := Canonical(cfg.Dialect)
	if err != nil {
		return "", err
	}
	switch canonical {
	case sqlite.Name:
		return DriverSQLite, nil
	case postgres.Name:
		return DriverPgx, nil
	case mysql.Name:
		return DriverMySQL, nil
	default:
		return DriverSQLServer, nil
	}
}

// ValidateDSN parses dsn with the parser of the dialect's driver so obvious
// mistakes fail before a connection is attempted.
func ValidateDSN(dialect, dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		return fmt.Errorf("dsn is required")
	}
	canonical, err := Canonical(dialect)
	if err != nil {
		return err
	}
	switch canonical {
	case postgres.Name:
		if _, err := pgx.ParseConfig(dsn); err != nil {
			return fmt.Errorf("postgres dsn: %w", err)
		}
	case mysql.Name:
		if _, err := mysqldriver.ParseDSN(dsn); err != nil {
			return fmt.Errorf("mysql dsn: %w", err)
		}
	case sqlserver.Name:
		if _, err := msdsn.Parse(dsn); err != nil {
			return fmt.Errorf("sqlserver dsn: %w", err)
		}
	}
	return nil
}

// Open validates cfg, opens the pool, applies the pool settings and pings the
// database. The caller closes the returned *sql.DB.
func Open(ctx context.Context, cfg Config) (*sql.DB, query.Dialect, error) {
	dialect, err := Dialect(cfg.Dialect)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidateDSN(cfg.Dialect, cfg.DSN); err != nil {
		return nil, nil, err
	}
	driver, err := cfg.DriverName()
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	idle := cfg.ConnMaxIdleTime
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	db.SetConnMaxIdleTime(idle)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return db, dialect, nil
}
