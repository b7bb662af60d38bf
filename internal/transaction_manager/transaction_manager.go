package transaction_manager

import "context"

// TransactionManager scopes a function to one atomic unit of work.
// Implementations must be reentrant: a call made inside an already-open
// transaction executes fn directly instead of nesting.
type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
