package db

import "context"

// TransactionFunc runs inside a storage transaction. Repositories called with
// ctx join the transaction.
type TransactionFunc func(ctx context.Context) error

// TransactionManager runs fn atomically: either every write fn makes through
// the repositories is kept, or none is.
type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}
