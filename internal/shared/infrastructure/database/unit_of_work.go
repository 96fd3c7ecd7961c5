package database

import "context"

// GenericUnitOfWork implements application.UnitOfWork on any Connection.
// A Begin inside an existing unit joins the outer transaction, and only
// the outermost unit commits or rolls back.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work over conn.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if outer, ok := TxInfoFromContext(ctx); ok {
		return WithTx(ctx, outer.Tx, false), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

// Commit commits an owned transaction and then runs its OnCommit hooks in
// registration order, with a context that no longer carries the
// transaction. Hooks do not run when the commit fails.
func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	info, err := owned(ctx)
	if err != nil || info == nil {
		return err
	}
	if err := info.Tx.Commit(ctx); err != nil {
		return err
	}
	hooks := info.hooks.fns
	info.hooks.fns = nil
	detached := context.WithValue(ctx, txKey{}, TxInfo{})
	for _, fn := range hooks {
		fn(detached)
	}
	return nil
}

// Rollback rolls back an owned transaction and drops its OnCommit hooks.
func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	info, err := owned(ctx)
	if err != nil || info == nil {
		return err
	}
	info.hooks.fns = nil
	return info.Tx.Rollback(ctx)
}

// owned returns the transaction info when ctx owns its transaction, and
// nil when it merely joined an outer one.
func owned(ctx context.Context) (*TxInfo, error) {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return nil, ErrNoTransaction
	}
	if !info.Owned {
		return nil, nil
	}
	if info.hooks == nil {
		info.hooks = &commitHooks{}
	}
	return &info, nil
}
