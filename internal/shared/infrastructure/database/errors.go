package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNoRows is returned when a query expected to return a row returns none.
	ErrNoRows = errors.New("no rows in result set")
	// ErrNoTransaction is returned by Commit and Rollback without a Begin.
	ErrNoTransaction = errors.New("no transaction in context")
)

// IsNoRows reports whether err means an empty result from either driver
// family.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNoRows)
}
