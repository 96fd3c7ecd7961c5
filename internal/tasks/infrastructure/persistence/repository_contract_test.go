package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

func mustTask(t *testing.T, title, frequency, due string) *task.Task {
	t.Helper()
	tk, err := task.NewTask(title, frequency, task.ParseDueDate(due))
	require.NoError(t, err)
	return tk
}

func titles(tasks []*task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, tk := range tasks {
		out = append(out, tk.Title())
	}
	return out
}

// testRepositoryContract exercises the behaviour every task.Repository
// implementation must share.
func testRepositoryContract(t *testing.T, newRepo func(t *testing.T) task.Repository) {
	ctx := context.Background()

	t.Run("create assigns increasing ids", func(t *testing.T) {
		repo := newRepo(t)
		first := mustTask(t, "Buy milk", "", "")
		second := mustTask(t, "Pay rent", "monthly", "2024-02-01")

		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		assert.Positive(t, first.ID())
		assert.Greater(t, second.ID(), first.ID())
	})

	t.Run("round trip", func(t *testing.T) {
		repo := newRepo(t)
		created := mustTask(t, "Pay rent", "Monthly", "2024-02-01")
		require.NoError(t, repo.Create(ctx, created))

		found, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, created.ID(), found.ID())
		assert.Equal(t, "Pay rent", found.Title())
		assert.Equal(t, task.FrequencyMonthly, found.Frequency())
		assert.False(t, found.Completed())
		assert.Equal(t, "2024-02-01", found.DueDate().String())
		assert.Empty(t, found.DomainEvents())
	})

	t.Run("null due date", func(t *testing.T) {
		repo := newRepo(t)
		created := mustTask(t, "Someday", "", "")
		require.NoError(t, repo.Create(ctx, created))

		found, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.True(t, found.DueDate().IsZero())
		assert.Nil(t, found.DueDate().Ptr())
	})

	t.Run("find missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.FindByID(ctx, 999999)
		assert.ErrorIs(t, err, task.ErrTaskNotFound)
	})

	t.Run("list filters", func(t *testing.T) {
		repo := newRepo(t)
		for _, tk := range []*task.Task{
			mustTask(t, "Buy milk", "daily", ""),
			mustTask(t, "Water plants", "weekly", ""),
			mustTask(t, "Buy flowers", "weekly", ""),
			mustTask(t, "100% done_ish", "yearly", ""),
			mustTask(t, "ÄPFEL kaufen", "daily", ""),
		} {
			require.NoError(t, repo.Create(ctx, tk))
		}

		all, err := repo.List(ctx, task.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Buy milk", "Water plants", "Buy flowers", "100% done_ish", "ÄPFEL kaufen"}, titles(all))

		tests := []struct {
			name   string
			filter task.Filter
			want   []string
		}{
			{"search is case-insensitive", task.NewFilter("BUY", ""), []string{"Buy milk", "Buy flowers"}},
			{"frequency exact", task.NewFilter("", " Weekly "), []string{"Water plants", "Buy flowers"}},
			{"combined", task.NewFilter("buy", "weekly"), []string{"Buy flowers"}},
			{"unknown frequency", task.NewFilter("", "hourly"), []string{}},
			{"percent is literal", task.NewFilter("%", ""), []string{"100% done_ish"}},
			{"underscore is literal", task.NewFilter("e_i", ""), []string{"100% done_ish"}},
			{"search folds non-ASCII case", task.NewFilter("äpfel", ""), []string{"ÄPFEL kaufen"}},
			{"search folds non-ASCII case upward", task.NewFilter("ÄPFEL K", "daily"), []string{"ÄPFEL kaufen"}},
			{"no match", task.NewFilter("zzz", ""), []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.List(ctx, tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.want, titles(got))
			})
		}
	})

	t.Run("update overwrites", func(t *testing.T) {
		repo := newRepo(t)
		created := mustTask(t, "Buy milk", "weekly", "2024-01-01")
		require.NoError(t, repo.Create(ctx, created))

		require.NoError(t, created.Replace("Buy oat milk", "", true, task.NoDueDate))
		require.NoError(t, repo.Update(ctx, created))

		found, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, "Buy oat milk", found.Title())
		assert.Equal(t, task.FrequencyDaily, found.Frequency())
		assert.True(t, found.Completed())
		assert.True(t, found.DueDate().IsZero())
	})

	t.Run("update missing", func(t *testing.T) {
		repo := newRepo(t)
		ghost := task.Rehydrate(999999, "Ghost", task.FrequencyDaily, false, task.NoDueDate)
		assert.ErrorIs(t, repo.Update(ctx, ghost), task.ErrTaskNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		created := mustTask(t, "Buy milk", "", "")
		require.NoError(t, repo.Create(ctx, created))

		require.NoError(t, repo.Delete(ctx, created.ID()))
		_, err := repo.FindByID(ctx, created.ID())
		assert.ErrorIs(t, err, task.ErrTaskNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, created.ID()), task.ErrTaskNotFound)
	})

	t.Run("ids are not reused", func(t *testing.T) {
		repo := newRepo(t)
		first := mustTask(t, "First", "", "")
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Delete(ctx, first.ID()))

		second := mustTask(t, "Second", "", "")
		require.NoError(t, repo.Create(ctx, second))
		assert.Greater(t, second.ID(), first.ID())
	})
}
