// Package migrations applies the embedded, versioned schema for every
// supported database driver and reconciles tables created by older
// releases.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql mysql/*.sql
var migrationFS embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    applied_at VARCHAR(64) NOT NULL
)`

// Migration is one versioned schema change.
type Migration struct {
	Version int64
	Name    string
	SQL     string
}

// Status describes whether a migration has been applied.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt string
}

// Load reads the migrations for a driver ordered by version.
// File names follow NNNNNN_name.up.sql.
func Load(driver database.Driver) ([]Migration, error) {
	dir := driver.String()
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		versionPart, label, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing name", name)
		}
		version, err := strconv.ParseInt(versionPart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("migration %s: invalid version: %w", name, err)
		}

		body, err := fs.ReadFile(migrationFS, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		migrations = append(migrations, Migration{Version: version, Name: label, SQL: string(body)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Runner applies pending migrations on a connection.
type Runner struct {
	conn   database.Connection
	logger *slog.Logger
}

// NewRunner creates a migration runner.
func NewRunner(conn database.Connection, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{conn: conn, logger: logger}
}

// Run applies every pending migration in version order and then reconciles
// the tasks table. It is safe to call on every startup.
func (r *Runner) Run(ctx context.Context) ([]int64, error) {
	migrations, err := Load(r.conn.Driver())
	if err != nil {
		return nil, err
	}

	if _, err := r.conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var ran []int64
	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return ran, fmt.Errorf("migration %d_%s failed: %w", m.Version, m.Name, err)
		}
		r.logger.Info("migration applied", "version", m.Version, "name", m.Name, "driver", r.conn.Driver())
		ran = append(ran, m.Version)
	}

	if err := reconcileTasks(ctx, r.conn, r.logger); err != nil {
		return ran, fmt.Errorf("failed to reconcile tasks table: %w", err)
	}

	return ran, nil
}

// Status lists every known migration and whether it has been applied.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	migrations, err := Load(r.conn.Driver())
	if err != nil {
		return nil, err
	}
	if _, err := r.conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(migrations))
	for _, m := range migrations {
		at, ok := applied[m.Version]
		statuses = append(statuses, Status{Version: m.Version, Name: m.Name, Applied: ok, AppliedAt: at})
	}
	return statuses, nil
}

func (r *Runner) appliedVersions(ctx context.Context) (map[int64]string, error) {
	rows, err := r.conn.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int64]string)
	for rows.Next() {
		var version int64
		var at string
		if err := rows.Scan(&version, &at); err != nil {
			return nil, err
		}
		applied[version] = at
	}
	return applied, rows.Err()
}

// apply runs one migration. Drivers with transactional DDL get all-or-nothing
// semantics; MySQL commits each DDL statement implicitly.
func (r *Runner) apply(ctx context.Context, m Migration) error {
	driver := r.conn.Driver()
	record := database.Rebind(driver, `INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`)
	appliedAt := time.Now().UTC().Format(time.RFC3339)

	if !driver.SupportsTransactionalDDL() {
		for _, stmt := range splitStatements(m.SQL) {
			if _, err := r.conn.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		_, err := r.conn.Exec(ctx, record, m.Version, m.Name, appliedAt)
		return err
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	for _, stmt := range splitStatements(m.SQL) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	if _, err := tx.Exec(ctx, record, m.Version, m.Name, appliedAt); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// splitStatements breaks a migration file into individual statements.
// Full-line "--" comments are dropped; statements end with ';'.
func splitStatements(script string) []string {
	var cleaned strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		cleaned.WriteString(line)
		cleaned.WriteByte('\n')
	}

	var statements []string
	for _, part := range strings.Split(cleaned.String(), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
