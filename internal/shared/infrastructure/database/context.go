package database

import "context"

type txKey struct{}

// TxInfo is the transaction carried by a context. Owned is false when a
// nested unit of work joined an outer transaction.
type TxInfo struct {
	Tx    Transaction
	Owned bool
	hooks *commitHooks
}

type commitHooks struct {
	fns []func(context.Context)
}

// WithTx returns a context carrying tx. Joining the transaction already in
// ctx shares its commit hooks.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	info := TxInfo{Tx: tx, Owned: owned, hooks: &commitHooks{}}
	if outer, ok := TxInfoFromContext(ctx); ok && outer.Tx == tx && outer.hooks != nil {
		info.hooks = outer.hooks
	}
	return context.WithValue(ctx, txKey{}, info)
}

// TxInfoFromContext returns the transaction info carried by ctx.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	return info, ok && info.Tx != nil
}

// TxFromContext returns the transaction carried by ctx, or nil.
func TxFromContext(ctx context.Context) Transaction {
	info, _ := TxInfoFromContext(ctx)
	return info.Tx
}

// OnCommit registers fn to run after the transaction in ctx commits. It
// reports false, and registers nothing, when ctx carries no transaction.
func OnCommit(ctx context.Context, fn func(context.Context)) bool {
	info, ok := TxInfoFromContext(ctx)
	if !ok || info.hooks == nil {
		return false
	}
	info.hooks.fns = append(info.hooks.fns, fn)
	return true
}

// ExecutorFromContext returns the transaction carried by ctx, falling back
// to conn.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}
