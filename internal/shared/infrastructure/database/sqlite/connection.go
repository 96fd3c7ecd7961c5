package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	sqlitedriver "modernc.org/sqlite"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/security"
)

func init() {
	if err := sqlitedriver.RegisterDeterministicScalarFunction(database.UnicodeLowerFunc, 1, unicodeLower); err != nil {
		panic(err)
	}
	database.Register(database.DriverSQLite, NewConnection)
}

// unicodeLower lowercases TEXT with the Go Unicode tables. NULL stays NULL
// and other types pass through.
func unicodeLower(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// NewConnection opens the SQLite file named by cfg.SQLitePath, or by a
// sqlite:// / file: URL when no path is given.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = pathFromURL(cfg.URL)
	}
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	path, err := security.ValidateDatabasePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid SQLite path: %w", err)
	}

	if path != ":memory:" {
		if err := database.EnsureDirectory(path); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// journal_mode=WAL lets readers proceed during writes; busy_timeout waits
	// on locks instead of failing with SQLITE_BUSY.
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return database.NewSQLConnection(db, database.DriverSQLite), nil
}

func pathFromURL(url string) string {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return strings.TrimPrefix(url, "sqlite://")
	case strings.HasPrefix(url, "file:"):
		return strings.TrimPrefix(url, "file:")
	default:
		return url
	}
}
