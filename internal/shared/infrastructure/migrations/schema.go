package migrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database"
)

// MySQL server error numbers raised when a concurrent process added the
// column or index first.
const (
	mysqlDuplicateColumn  = 1060
	mysqlDuplicateKeyName = 1061
)

type columnSpec struct {
	name string
	ddl  map[database.Driver]string
}

type indexSpec struct {
	name   string
	column string
}

// tasksColumns are the columns a tasks table must have. Early releases
// created the table without due_date, and without an explicit frequency
// default on some engines.
var tasksColumns = []columnSpec{
	{
		name: "frequency",
		ddl: map[database.Driver]string{
			database.DriverSQLite:   `ALTER TABLE tasks ADD COLUMN frequency TEXT NOT NULL DEFAULT 'daily' CHECK (frequency IN ('daily', 'weekly', 'monthly', 'yearly'))`,
			database.DriverPostgres: `ALTER TABLE tasks ADD COLUMN frequency VARCHAR(16) NOT NULL DEFAULT 'daily' CHECK (frequency IN ('daily', 'weekly', 'monthly', 'yearly'))`,
			database.DriverMySQL:    `ALTER TABLE tasks ADD COLUMN frequency ENUM('daily', 'weekly', 'monthly', 'yearly') NOT NULL DEFAULT 'daily'`,
		},
	},
	{
		name: "completed",
		ddl: map[database.Driver]string{
			database.DriverSQLite:   `ALTER TABLE tasks ADD COLUMN completed BOOLEAN NOT NULL DEFAULT 0`,
			database.DriverPostgres: `ALTER TABLE tasks ADD COLUMN completed BOOLEAN NOT NULL DEFAULT FALSE`,
			database.DriverMySQL:    `ALTER TABLE tasks ADD COLUMN completed BOOLEAN NOT NULL DEFAULT FALSE`,
		},
	},
	{
		name: "due_date",
		ddl: map[database.Driver]string{
			database.DriverSQLite:   `ALTER TABLE tasks ADD COLUMN due_date DATE`,
			database.DriverPostgres: `ALTER TABLE tasks ADD COLUMN due_date DATE`,
			database.DriverMySQL:    `ALTER TABLE tasks ADD COLUMN due_date DATE NULL`,
		},
	},
}

var tasksIndexes = []indexSpec{
	{name: "idx_tasks_frequency", column: "frequency"},
	{name: "idx_tasks_due_date", column: "due_date"},
}

var columnQueries = map[database.Driver]string{
	database.DriverSQLite:   `SELECT name FROM pragma_table_info('tasks')`,
	database.DriverPostgres: `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = 'tasks'`,
	database.DriverMySQL:    `SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = 'tasks'`,
}

var indexQueries = map[database.Driver]string{
	database.DriverSQLite:   `SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'tasks'`,
	database.DriverPostgres: `SELECT indexname FROM pg_indexes WHERE schemaname = current_schema() AND tablename = 'tasks'`,
	database.DriverMySQL:    `SELECT DISTINCT index_name FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = 'tasks'`,
}

// reconcileTasks adds missing columns and then missing indexes.
func reconcileTasks(ctx context.Context, conn database.Connection, logger *slog.Logger) error {
	driver := conn.Driver()

	columns, err := listNames(ctx, conn, columnQueries[driver])
	if err != nil {
		return fmt.Errorf("failed to list columns: %w", err)
	}
	for _, col := range tasksColumns {
		if _, ok := columns[col.name]; ok {
			continue
		}
		if _, err := conn.Exec(ctx, col.ddl[driver]); err != nil && !isDuplicate(err) {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
		logger.Info("added missing column", "table", "tasks", "column", col.name)
	}

	indexes, err := listNames(ctx, conn, indexQueries[driver])
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	for _, idx := range tasksIndexes {
		if _, ok := indexes[idx.name]; ok {
			continue
		}
		stmt := fmt.Sprintf("CREATE INDEX %s ON tasks (%s)", idx.name, idx.column)
		if _, err := conn.Exec(ctx, stmt); err != nil && !isDuplicate(err) {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		logger.Info("created missing index", "table", "tasks", "index", idx.name)
	}

	return nil
}

func listNames(ctx context.Context, conn database.Connection, query string) (map[string]struct{}, error) {
	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = struct{}{}
	}
	return names, rows.Err()
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateColumn || myErr.Number == mysqlDuplicateKeyName
	}
	return false
}
