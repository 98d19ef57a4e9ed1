package domain

import "context"

// Atomic runs fn against transactional views of both stores. Either every
// write in fn commits or none do. A compare-and-set failure inside fn aborts
// the transaction with ErrConcurrentModification.
type Atomic interface {
	RunInTx(ctx context.Context, fn func(items ItemRepository, movements MovementRepository) error) error
}

// TelemetrySink records operation outcomes off the critical path. Calls never
// return errors and never block a commit.
type TelemetrySink interface {
	RecordSuccess(operation string)
	RecordFailure(operation, detail string)
	ObserveDuration(operation string, seconds float64)
}

// EventPublisher announces committed ledger facts to interested services.
// Publishing happens after commit; failures are logged by implementations and
// never surfaced to the caller.
type EventPublisher interface {
	MovementRecorded(ctx context.Context, movement *StockMovement)
	StockLevelLow(ctx context.Context, item *InventoryItem)
}
