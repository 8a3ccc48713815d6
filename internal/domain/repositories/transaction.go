package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions. Every orchestrator
// operation that touches more than one store runs inside ExecTx; on error the
// transaction aborts and no partial write is visible to subsequent reads.
type TransactionManager interface {
	// ExecTx executes a function within a transaction with snapshot (or
	// stronger) isolation. A storage-level serialization conflict surfaces
	// to the caller as a retryable failure; nothing is retried internally.
	ExecTx(ctx context.Context, fn TxFn) error
}
