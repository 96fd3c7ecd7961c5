// Package persistence provides the unit of work used by the in-memory
// storage driver.
package persistence

import (
	"context"
	"errors"
	"sync"
)

// ErrNoUnitOfWork is returned when Commit or Rollback run outside Begin.
var ErrNoUnitOfWork = errors.New("no unit of work in context")

type unitKey struct{}

type undoLog struct {
	actions  []func()
	onCommit []func(context.Context)
}

type unitInfo struct {
	log   *undoLog
	owned bool
}

// LockingUnitOfWork serializes units of work with a single mutex. Memory
// repositories register compensating actions with OnRollback so that a
// failed unit leaves no partial writes behind.
type LockingUnitOfWork struct {
	mu sync.Mutex
}

// NewLockingUnitOfWork creates a new LockingUnitOfWork.
func NewLockingUnitOfWork() *LockingUnitOfWork {
	return &LockingUnitOfWork{}
}

// Begin acquires the lock and stores the unit in the context. A nested
// Begin joins the enclosing unit and does not own it.
func (u *LockingUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := unitFromContext(ctx); ok {
		return context.WithValue(ctx, unitKey{}, unitInfo{log: info.log, owned: false}), nil
	}
	u.mu.Lock()
	return context.WithValue(ctx, unitKey{}, unitInfo{log: &undoLog{}, owned: true}), nil
}

// Commit discards the undo log and releases the lock if this unit owns it.
// OnCommit hooks run after the lock is released, with a context outside
// the unit.
func (u *LockingUnitOfWork) Commit(ctx context.Context) error {
	info, ok := unitFromContext(ctx)
	if !ok {
		return ErrNoUnitOfWork
	}
	if !info.owned {
		return nil
	}
	hooks := info.log.onCommit
	info.log.actions, info.log.onCommit = nil, nil
	u.mu.Unlock()

	detached := context.WithValue(ctx, unitKey{}, nil)
	for _, fn := range hooks {
		fn(detached)
	}
	return nil
}

// Rollback runs the registered compensations in reverse order and releases
// the lock if this unit owns it.
func (u *LockingUnitOfWork) Rollback(ctx context.Context) error {
	info, ok := unitFromContext(ctx)
	if !ok {
		return ErrNoUnitOfWork
	}
	if !info.owned {
		return nil
	}
	for i := len(info.log.actions) - 1; i >= 0; i-- {
		info.log.actions[i]()
	}
	info.log.actions, info.log.onCommit = nil, nil
	u.mu.Unlock()
	return nil
}

// OnRollback registers fn to run if the unit in ctx rolls back. Outside a
// unit of work it does nothing.
func OnRollback(ctx context.Context, fn func()) {
	if info, ok := unitFromContext(ctx); ok {
		info.log.actions = append(info.log.actions, fn)
	}
}

// OnCommit registers fn to run once the unit in ctx commits. It reports
// false, and registers nothing, outside a unit of work.
func OnCommit(ctx context.Context, fn func(context.Context)) bool {
	info, ok := unitFromContext(ctx)
	if !ok {
		return false
	}
	info.log.onCommit = append(info.log.onCommit, fn)
	return true
}

// InUnitOfWork reports whether ctx carries a unit of work.
func InUnitOfWork(ctx context.Context) bool {
	_, ok := unitFromContext(ctx)
	return ok
}

func unitFromContext(ctx context.Context) (unitInfo, bool) {
	info, ok := ctx.Value(unitKey{}).(unitInfo)
	return info, ok
}
