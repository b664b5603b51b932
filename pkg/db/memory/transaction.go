package memory

import (
	"context"
	"railbook/pkg/db"
	"sync"
)

type journalKey struct{}

// journal collects undo operations for writes made inside one transaction.
type journal struct {
	mu    sync.Mutex
	undos []func()
}

func (j *journal) add(undo func()) {
	j.mu.Lock()
	j.undos = append(j.undos, undo)
	j.mu.Unlock()
}

func (j *journal) rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
	j.undos = nil
}

// Record registers undo for a write made under ctx. Outside a transaction it
// is a no-op and the write stands on its own.
func Record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.add(undo)
	}
}

type transactionManager struct{}

// NewTransactionManager returns a TransactionManager for the in-memory
// repositories. Isolation between concurrent transactions comes from the
// scope lock held by the caller, not from this type.
func NewTransactionManager() db.TransactionManager {
	return &transactionManager{}
}

func (m *transactionManager) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}
