package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/repository"
)

// allowGate grants every actor every action.
type allowGate struct{}

func (allowGate) Check(context.Context, string, string) error { return nil }

func (allowGate) Invalidate(context.Context, string) error { return nil }

// denyGate refuses every actor.
type denyGate struct{}

func (denyGate) Check(_ context.Context, actorID, action string) error {
	return &domain.PermissionDeniedError{ActorID: actorID, Action: action}
}

func (denyGate) Invalidate(context.Context, string) error { return nil }

// downGate simulates an unreachable role service. Checks fail closed.
type downGate struct{}

func (downGate) Check(context.Context, string, string) error {
	return domain.ErrPermissionUnavailable
}

func (downGate) Invalidate(context.Context, string) error { return nil }

// countingGate counts checks while allowing everything.
type countingGate struct {
	checks int
}

func (g *countingGate) Check(context.Context, string, string) error {
	g.checks++
	return nil
}

func (g *countingGate) Invalidate(context.Context, string) error { return nil }

// recordingSink captures telemetry calls for assertions.
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

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	movements []domain.StockMovement
	lowStock  []string
}

func (p *recordingPublisher) MovementRecorded(_ context.Context, m *domain.StockMovement) {
	p.movements = append(p.movements, *m)
}

func (p *recordingPublisher) StockLevelLow(_ context.Context, item *domain.InventoryItem) {
	p.lowStock = append(p.lowStock, item.ID)
}

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

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
