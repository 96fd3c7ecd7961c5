package migrations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database/sqlite"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openSQLite(t *testing.T) database.Connection {
	t.Helper()
	conn, err := sqlite.NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "migrations.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestLoad(t *testing.T) {
	for _, driver := range []database.Driver{database.DriverSQLite, database.DriverPostgres, database.DriverMySQL} {
		t.Run(driver.String(), func(t *testing.T) {
			migrations, err := Load(driver)
			require.NoError(t, err)
			require.Len(t, migrations, 2)

			assert.Equal(t, int64(1), migrations[0].Version)
			assert.Equal(t, "create_tasks", migrations[0].Name)
			assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS tasks")
			assert.Equal(t, int64(2), migrations[1].Version)
			assert.Equal(t, "create_outbox", migrations[1].Name)
		})
	}
}

func TestSplitStatements(t *testing.T) {
	script := `-- leading comment
CREATE TABLE a (id INT);

CREATE INDEX idx_a ON a (id);
`
	assert.Equal(t, []string{
		"CREATE TABLE a (id INT)",
		"CREATE INDEX idx_a ON a (id)",
	}, splitStatements(script))
}

func TestRunner_FreshDatabase(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	runner := NewRunner(conn, quietLogger())

	ran, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ran)

	indexes, err := listNames(ctx, conn, indexQueries[database.DriverSQLite])
	require.NoError(t, err)
	assert.Contains(t, indexes, "idx_tasks_frequency")
	assert.Contains(t, indexes, "idx_tasks_due_date")
}

func TestRunner_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	runner := NewRunner(conn, quietLogger())

	_, err := runner.Run(ctx)
	require.NoError(t, err)

	ran, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran)

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRunner_ReconcilesLegacyTable(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)

	// Shape of the table before due dates existed.
	_, err := conn.Exec(ctx, `CREATE TABLE tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		frequency TEXT DEFAULT 'daily',
		completed BOOLEAN DEFAULT 0
	)`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `INSERT INTO tasks (title) VALUES ('legacy row')`)
	require.NoError(t, err)

	_, err = NewRunner(conn, quietLogger()).Run(ctx)
	require.NoError(t, err)

	columns, err := listNames(ctx, conn, columnQueries[database.DriverSQLite])
	require.NoError(t, err)
	assert.Contains(t, columns, "due_date")

	indexes, err := listNames(ctx, conn, indexQueries[database.DriverSQLite])
	require.NoError(t, err)
	assert.Contains(t, indexes, "idx_tasks_due_date")

	var title string
	var dueDate *string
	require.NoError(t, conn.QueryRow(ctx, `SELECT title, due_date FROM tasks`).Scan(&title, &dueDate))
	assert.Equal(t, "legacy row", title)
	assert.Nil(t, dueDate)
}

func TestRunner_Status(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	runner := NewRunner(conn, quietLogger())

	statuses, err := runner.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.False(t, statuses[0].Applied)

	_, err = runner.Run(ctx)
	require.NoError(t, err)

	statuses, err = runner.Status(ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		assert.True(t, s.Applied, "version %d", s.Version)
		assert.NotEmpty(t, s.AppliedAt)
	}
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(&mysql.MySQLError{Number: mysqlDuplicateColumn}))
	assert.True(t, isDuplicate(&mysql.MySQLError{Number: mysqlDuplicateKeyName}))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1146}))
	assert.False(t, isDuplicate(errors.New("boom")))
}
