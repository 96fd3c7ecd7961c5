package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name     string
		driver   Driver
		query    string
		expected string
	}{
		{
			name:     "postgres numbers placeholders",
			driver:   DriverPostgres,
			query:    "UPDATE tasks SET title = ?, completed = ? WHERE id = ?",
			expected: "UPDATE tasks SET title = $1, completed = $2 WHERE id = $3",
		},
		{
			name:     "postgres keeps quoted question marks",
			driver:   DriverPostgres,
			query:    "SELECT id FROM tasks WHERE title = '?' AND id = ?",
			expected: "SELECT id FROM tasks WHERE title = '?' AND id = $1",
		},
		{
			name:     "postgres keeps escape literal",
			driver:   DriverPostgres,
			query:    "SELECT id FROM tasks WHERE LOWER(title) LIKE ? ESCAPE '!'",
			expected: "SELECT id FROM tasks WHERE LOWER(title) LIKE $1 ESCAPE '!'",
		},
		{
			name:     "sqlite unchanged",
			driver:   DriverSQLite,
			query:    "DELETE FROM tasks WHERE id = ?",
			expected: "DELETE FROM tasks WHERE id = ?",
		},
		{
			name:     "mysql unchanged",
			driver:   DriverMySQL,
			query:    "DELETE FROM tasks WHERE id = ?",
			expected: "DELETE FROM tasks WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Rebind(tt.driver, tt.query))
		})
	}
}
