package transaction_manager

import (
	"context"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

type connKey struct{}

// WithConn attaches a transaction connection to the context so that
// repository calls made inside the transaction run on it.
func WithConn(ctx context.Context, conn *sqlite.Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

// ConnFromContext returns the ambient transaction connection, or nil
// when the call is not inside a transaction.
func ConnFromContext(ctx context.Context) *sqlite.Conn {
	conn, _ := ctx.Value(connKey{}).(*sqlite.Conn)
	return conn
}

// SqliteTransactionManager runs fn inside a savepoint on a pooled
// connection. The connection travels on the context, so the SQLite
// repositories pick it up and all statements issued by fn commit or
// roll back together. Nested calls see the ambient connection and
// execute inline.
type SqliteTransactionManager struct {
	pool *sqlitex.Pool
}

func NewSqliteTransactionManager(pool *sqlitex.Pool) *SqliteTransactionManager {
	return &SqliteTransactionManager{pool: pool}
}

func (tm *SqliteTransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ConnFromContext(ctx) != nil {
		return fn(ctx)
	}

	conn, err := tm.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer tm.pool.Put(conn)

	release := sqlitex.Save(conn)
	defer release(&err)

	err = fn(WithConn(ctx, conn))
	return err
}

var _ TransactionManager = (*SqliteTransactionManager)(nil)
