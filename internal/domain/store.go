package domain

import (
	"context"
	"time"
)

// ActivityStore persists detected leader trades keyed by the operator's
// deployment. It must support listing everything (restart recovery of the
// known-hash set) and updating a single entry to its terminal state.
type ActivityStore interface {
	// Create inserts a new trade entry. Inserting a TxHash that already
	// exists returns an error wrapping ErrAlreadyExists semantics at the
	// database level; the poller's dedup makes this unreachable in practice.
	Create(ctx context.Context, trade TradeActivity) error

	// ListAll returns every stored trade entry, oldest first.
	ListAll(ctx context.Context) ([]TradeActivity, error)

	// GetByTxHash returns the entry with the given transaction hash, or
	// ErrNotFound.
	GetByTxHash(ctx context.Context, txHash string) (TradeActivity, error)

	// BeginExecution stamps the entry with a fresh execution ID before the
	// first order submission. The stamp is the write-ahead marker that makes
	// a crash between a fill and the terminal write detectable.
	BeginExecution(ctx context.Context, id, executionID string) error

	// MarkExecuted records the terminal outcome for an entry. The executed
	// flag flips true exactly once; subsequent calls for the same id are
	// rejected by the store.
	MarkExecuted(ctx context.Context, id string, outcome ExecutionOutcome) error

	// AbortInterrupted marks every entry that has an execution ID but no
	// terminal state as aborted with AbortInterrupted. Called once at
	// startup, before polling begins, so interrupted executions are never
	// retried. Returns the number of entries updated.
	AbortInterrupted(ctx context.Context) (int64, error)
}

// SnapshotStore persists position snapshots for observability.
type SnapshotStore interface {
	Record(ctx context.Context, snap PositionSnapshot) error
	Latest(ctx context.Context, owner PositionOwner, asset string) (PositionSnapshot, error)
	ListSince(ctx context.Context, owner PositionOwner, since time.Time) ([]PositionSnapshot, error)
}
