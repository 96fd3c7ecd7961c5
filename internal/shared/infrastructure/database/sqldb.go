package database

import (
	"context"
	"database/sql"
)

// sqlQuerier is the query surface shared by *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqlRunner implements Executor over a sqlQuerier.
type sqlRunner struct {
	q sqlQuerier
}

func (r sqlRunner) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r sqlRunner) QueryRow(ctx context.Context, query string, args ...any) Row {
	return r.q.QueryRowContext(ctx, query, args...)
}

func (r sqlRunner) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SQLConnection adapts a database/sql pool to Connection. SQLite and MySQL
// both go through it.
type SQLConnection struct {
	sqlRunner
	db     *sql.DB
	driver Driver
}

// NewSQLConnection wraps an open *sql.DB.
func NewSQLConnection(db *sql.DB, driver Driver) *SQLConnection {
	return &SQLConnection{sqlRunner: sqlRunner{q: db}, db: db, driver: driver}
}

// DB returns the underlying pool.
func (c *SQLConnection) DB() *sql.DB { return c.db }

// Driver returns the driver type.
func (c *SQLConnection) Driver() Driver { return c.driver }

func (c *SQLConnection) Close() error { return c.db.Close() }

func (c *SQLConnection) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

// BeginTx starts a transaction with the driver's default isolation.
func (c *SQLConnection) BeginTx(ctx context.Context) (Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &SQLTransaction{sqlRunner: sqlRunner{q: tx}, tx: tx}, nil
}

// SQLTransaction is an open database/sql transaction.
type SQLTransaction struct {
	sqlRunner
	tx *sql.Tx
}

func (t *SQLTransaction) Commit(context.Context) error { return t.tx.Commit() }

func (t *SQLTransaction) Rollback(context.Context) error { return t.tx.Rollback() }
