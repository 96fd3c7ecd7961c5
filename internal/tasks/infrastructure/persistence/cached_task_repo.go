package persistence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database"
	sharedPersistence "github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

const (
	cacheNamespace   = "tasktrack"
	generationKey    = cacheNamespace + ":tasks:gen"
	DefaultCacheTTL  = 5 * time.Minute
	listKeyHashBytes = 8
)

// CachedTaskRepository is a read-through Redis cache in front of another
// task.Repository. Item entries are deleted on write; list entries are
// keyed by a generation counter that every write increments. Redis errors
// are logged and the call falls through to the wrapped repository.
type CachedTaskRepository struct {
	next   task.Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedTaskRepository wraps next with a Redis cache.
func NewCachedTaskRepository(next task.Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedTaskRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedTaskRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func taskKey(id int64) string {
	return cacheNamespace + ":task:" + strconv.FormatInt(id, 10)
}

func listKey(gen int64, filter task.Filter) string {
	sum := sha256.Sum256([]byte(filter.Search + "\x00" + filter.Frequency.String()))
	return fmt.Sprintf("%s:tasks:%d:%s", cacheNamespace, gen, hex.EncodeToString(sum[:listKeyHashBytes]))
}

// bypass reports whether reads must skip the cache because they belong to
// an open transaction or unit of work.
func bypass(ctx context.Context) bool {
	return database.TxFromContext(ctx) != nil || sharedPersistence.InUnitOfWork(ctx)
}

// Create stores the task and invalidates cached lists.
func (r *CachedTaskRepository) Create(ctx context.Context, t *task.Task) error {
	if err := r.next.Create(ctx, t); err != nil {
		return err
	}
	r.afterWrite(ctx, 0)
	return nil
}

// Update overwrites the task and invalidates its entry and cached lists.
func (r *CachedTaskRepository) Update(ctx context.Context, t *task.Task) error {
	if err := r.next.Update(ctx, t); err != nil {
		return err
	}
	r.afterWrite(ctx, t.ID())
	return nil
}

// Delete removes the task and invalidates its entry and cached lists.
func (r *CachedTaskRepository) Delete(ctx context.Context, id int64) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.afterWrite(ctx, id)
	return nil
}

// FindByID serves from cache when possible.
func (r *CachedTaskRepository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	if bypass(ctx) {
		return r.next.FindByID(ctx, id)
	}

	key := taskKey(id)
	var snap task.Snapshot
	if r.load(ctx, key, &snap) {
		return snap.Restore(), nil
	}

	t, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, t.Snapshot())
	return t, nil
}

// List serves from cache when possible.
func (r *CachedTaskRepository) List(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	if bypass(ctx) {
		return r.next.List(ctx, filter)
	}

	gen, err := r.generation(ctx)
	if err != nil {
		r.logger.Warn("task cache unavailable", "error", err)
		return r.next.List(ctx, filter)
	}

	key := listKey(gen, filter)
	var snaps []task.Snapshot
	if r.load(ctx, key, &snaps) {
		tasks := make([]*task.Task, 0, len(snaps))
		for _, s := range snaps {
			tasks = append(tasks, s.Restore())
		}
		return tasks, nil
	}

	tasks, err := r.next.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	snaps = make([]task.Snapshot, 0, len(tasks))
	for _, t := range tasks {
		snaps = append(snaps, t.Snapshot())
	}
	r.store(ctx, key, snaps)
	return tasks, nil
}

func (r *CachedTaskRepository) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (r *CachedTaskRepository) load(ctx context.Context, key string, dest any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		r.logger.Warn("task cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Warn("task cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (r *CachedTaskRepository) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("task cache write failed", "key", key, "error", err)
	}
}

// afterWrite invalidates now and, inside a unit of work, again once the
// unit commits. Reads between the write and the commit still see the old
// row and may cache it under the new generation.
func (r *CachedTaskRepository) afterWrite(ctx context.Context, id int64) {
	r.invalidate(ctx, id)

	again := func(ctx context.Context) { r.invalidate(ctx, id) }
	if !database.OnCommit(ctx, again) {
		sharedPersistence.OnCommit(ctx, again)
	}
}

// invalidate bumps the list generation and, for id > 0, drops the item.
func (r *CachedTaskRepository) invalidate(ctx context.Context, id int64) {
	pipe := r.client.TxPipeline()
	if id > 0 {
		pipe.Del(ctx, taskKey(id))
	}
	pipe.Incr(ctx, generationKey)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("task cache invalidation failed", "task_id", id, "error", err)
	}
}
