package transaction_manager

import "context"

type txMarkerKey struct{}

// SimpleTransactionManager pairs with the in-memory repositories. It
// provides no rollback; it only tracks transaction scope so nested calls
// execute inline, matching the reentrancy contract.
type SimpleTransactionManager struct{}

func NewSimpleTransactionManager() *SimpleTransactionManager {
	return &SimpleTransactionManager{}
}

func (tm *SimpleTransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarkerKey{}) != nil {
		return fn(ctx)
	}
	return fn(context.WithValue(ctx, txMarkerKey{}, true))
}

// InTransaction reports whether ctx is already inside a transaction
// opened by a SimpleTransactionManager.
func InTransaction(ctx context.Context) bool {
	return ctx.Value(txMarkerKey{}) != nil
}

var _ TransactionManager = (*SimpleTransactionManager)(nil)
