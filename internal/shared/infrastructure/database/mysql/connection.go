package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database"
)

func init() {
	database.Register(database.DriverMySQL, NewConnection)
}

// NewConnection opens a MySQL pool. cfg.URL may be a go-sql-driver DSN
// (user:pass@tcp(host:3306)/db) or a mysql:// URL.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required for MySQL")
	}

	dsnCfg, err := ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if dsnCfg.DBName == "" {
		dsnCfg.DBName = cfg.Name()
	}
	dsnCfg.ParseTime = true
	// Report matched rows rather than changed rows so an UPDATE that
	// rewrites identical values still counts as a hit.
	dsnCfg.ClientFoundRows = true

	if cfg.CreateDatabase {
		if err := ensureDatabase(ctx, dsnCfg); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("mysql", dsnCfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	return database.NewSQLConnection(db, database.DriverMySQL), nil
}

// ParseDSN accepts both the native DSN form and mysql:// URLs.
func ParseDSN(raw string) (*mysql.Config, error) {
	if !strings.HasPrefix(raw, "mysql://") {
		return mysql.ParseDSN(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Hostname() + ":3306"
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	if len(query) > 0 {
		cfg.Params = make(map[string]string, len(query))
		for key := range query {
			cfg.Params[key] = query.Get(key)
		}
	}
	return cfg, nil
}

// ensureDatabase runs CREATE DATABASE IF NOT EXISTS on a server-level
// connection, i.e. one without a default schema.
func ensureDatabase(ctx context.Context, target *mysql.Config) error {
	admin := target.Clone()
	admin.DBName = ""

	db, err := sql.Open("mysql", admin.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to open MySQL server connection: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+QuoteIdentifier(target.DBName)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", target.DBName, err)
	}
	return nil
}

// QuoteIdentifier quotes a MySQL identifier with backticks.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
