package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/repository"
)

type allowGate struct{}

func (allowGate) Check(context.Context, string, string) error { return nil }

func (allowGate) Invalidate(context.Context, string) error { return nil }

type denyGate struct{}

func (denyGate) Check(_ context.Context, actorID, action string) error {
	return &domain.PermissionDeniedError{ActorID: actorID, Action: action}
}

func (denyGate) Invalidate(context.Context, string) error { return nil }

type recordingSink struct {
	successes []string
	failures  []string
}

func (s *recordingSink) RecordSuccess(operation string) {
	s.successes = append(s.successes, operation)
}

func (s *recordingSink) RecordFailure(operation, detail string) {
	s.failures = append(s.failures, operation+":"+detail)
}

func (s *recordingSink) ObserveDuration(string, float64) {}

func seedItem(t *testing.T, store *repository.MemoryStore, productID string, stock, reserved, minimum int) *domain.InventoryItem {
	t.Helper()
	item := &domain.InventoryItem{
		ProductID:            productID,
		CurrentStock:         stock,
		ReservedStock:        reserved,
		MinimumThreshold:     minimum,
		IsActive:             true,
		IsVisibleToCustomers: true,
	}
	require.NoError(t, store.Items().Create(context.Background(), item))
	return item
}

// movementSeed describes one audit row to plant directly in the store.
type movementSeed struct {
	itemID      string
	movType     domain.MovementType
	quantity    int
	performedBy string
	batchID     string
	performedAt time.Time
}

func seedMovement(store *repository.MemoryStore, seed movementSeed) domain.StockMovement {
	movement := domain.StockMovement{
		ID:              uuid.New().String(),
		InventoryItemID: seed.itemID,
		MovementType:    seed.movType,
		QuantityChange:  seed.quantity,
		PerformedAt:     seed.performedAt,
	}
	if seed.performedBy != "" {
		actor := seed.performedBy
		movement.PerformedBy = &actor
	}
	if seed.batchID != "" {
		batch := seed.batchID
		movement.BatchID = &batch
	}
	store.SeedMovement(movement)
	return movement
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
