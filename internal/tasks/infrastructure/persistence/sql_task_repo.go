package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

// SQLTaskRepository implements task.Repository on a database.Connection.
// One implementation serves SQLite, PostgreSQL and MySQL; the dialect
// differences are placeholders, id retrieval and date rendering.
type SQLTaskRepository struct {
	conn database.Connection
}

// NewSQLTaskRepository creates a new SQL task repository.
func NewSQLTaskRepository(conn database.Connection) *SQLTaskRepository {
	return &SQLTaskRepository{conn: conn}
}

func (r *SQLTaskRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLTaskRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// selectColumns renders due_date as YYYY-MM-DD text on every engine.
func (r *SQLTaskRepository) selectColumns() string {
	var due string
	switch r.conn.Driver() {
	case database.DriverPostgres:
		due = "to_char(due_date, 'YYYY-MM-DD')"
	case database.DriverMySQL:
		due = "DATE_FORMAT(due_date, '%Y-%m-%d')"
	default:
		due = "due_date"
	}
	return "id, title, frequency, completed, " + due
}

// Create stores a new task and assigns its id.
func (r *SQLTaskRepository) Create(ctx context.Context, t *task.Task) error {
	query := `INSERT INTO tasks (title, frequency, completed, due_date) VALUES (?, ?, ?, ?)`
	args := []any{t.Title(), t.Frequency().String(), t.Completed(), t.DueDate().Ptr()}

	var id int64
	if r.conn.Driver() == database.DriverPostgres {
		if err := r.exec(ctx).QueryRow(ctx, r.q(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return err
		}
	} else {
		result, err := r.exec(ctx).Exec(ctx, r.q(query), args...)
		if err != nil {
			return err
		}
		if id, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read task id: %w", err)
		}
	}

	t.AssignID(id)
	return nil
}

// Update overwrites a stored task. Returns task.ErrTaskNotFound if no row
// matched the id.
func (r *SQLTaskRepository) Update(ctx context.Context, t *task.Task) error {
	result, err := r.exec(ctx).Exec(ctx,
		r.q(`UPDATE tasks SET title = ?, frequency = ?, completed = ?, due_date = ? WHERE id = ?`),
		t.Title(), t.Frequency().String(), t.Completed(), t.DueDate().Ptr(), t.ID(),
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// FindByID retrieves a task by its ID.
func (r *SQLTaskRepository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	row := r.exec(ctx).QueryRow(ctx, r.q(`SELECT `+r.selectColumns()+` FROM tasks WHERE id = ?`), id)
	t, err := scanTask(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns the tasks matching filter ordered by id.
func (r *SQLTaskRepository) List(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	var (
		where []string
		args  []any
	)
	if filter.Search != "" {
		where = append(where, r.conn.Driver().LowerExpr("title")+` LIKE ? ESCAPE '!'`)
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Search))+"%")
	}
	if filter.Frequency != "" {
		where = append(where, `frequency = ?`)
		args = append(args, filter.Frequency.String())
	}

	query := `SELECT ` + r.selectColumns() + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY id`

	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Delete removes a task.
func (r *SQLTaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.exec(ctx).Exec(ctx, r.q(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func requireAffected(result database.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

func scanTask(row database.Row) (*task.Task, error) {
	var (
		id        int64
		title     string
		frequency string
		completed bool
		dueDate   sql.NullString
	)
	if err := row.Scan(&id, &title, &frequency, &completed, &dueDate); err != nil {
		return nil, err
	}

	due := task.NoDueDate
	if dueDate.Valid {
		// SQLite may hand DATE columns back as full timestamps.
		s := dueDate.String
		if len(s) > len(task.DateLayout) {
			s = s[:len(task.DateLayout)]
		}
		due = task.ParseDueDate(s)
	}

	return task.Rehydrate(id, title, task.Frequency(frequency), completed, due), nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
