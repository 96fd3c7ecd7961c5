package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tasktrack/internal/shared/application"
	sharedPersistence "github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

func TestMemoryTaskRepository_Contract(t *testing.T) {
	testRepositoryContract(t, func(t *testing.T) task.Repository {
		return NewMemoryTaskRepository()
	})
}

func TestMemoryTaskRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	created := mustTask(t, "Buy milk", "", "")
	require.NoError(t, repo.Create(ctx, created))

	found, err := repo.FindByID(ctx, created.ID())
	require.NoError(t, err)
	require.NoError(t, found.Replace("Changed", "", true, task.NoDueDate))

	again, err := repo.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", again.Title())
}

func TestMemoryTaskRepository_RollbackUndoesWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	uow := sharedPersistence.NewLockingUnitOfWork()

	kept := mustTask(t, "Kept", "weekly", "")
	removed := mustTask(t, "Removed", "", "")
	require.NoError(t, repo.Create(ctx, kept))
	require.NoError(t, repo.Create(ctx, removed))

	err := application.WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, mustTask(t, "Rolled back", "", "")))

		require.NoError(t, kept.Replace("Renamed", "daily", true, task.NoDueDate))
		require.NoError(t, repo.Update(ctx, kept))

		require.NoError(t, repo.Delete(ctx, removed.ID()))
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	all, err := repo.List(ctx, task.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kept", "Removed"}, titles(all))
	assert.Equal(t, task.FrequencyWeekly, all[0].Frequency())
	assert.Equal(t, 2, repo.Count())
}

func TestMemoryTaskRepository_CommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	uow := sharedPersistence.NewLockingUnitOfWork()

	err := application.WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
		return repo.Create(ctx, mustTask(t, "Committed", "", ""))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Count())
}
