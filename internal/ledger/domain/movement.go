package domain

import (
	"context"
	"fmt"
	"time"
)

// MovementType classifies a stock movement. The set is closed; unknown values
// are rejected at the boundary by ParseMovementType.
type MovementType string

const (
	MovementRestock     MovementType = "restock"
	MovementSale        MovementType = "sale"
	MovementAdjustment  MovementType = "adjustment"
	MovementReservation MovementType = "reservation"
	MovementRelease     MovementType = "release"
	MovementTransfer    MovementType = "transfer"
)

// AllMovementTypes returns the closed movement set in its canonical order.
func AllMovementTypes() []MovementType {
	return []MovementType{
		MovementRestock,
		MovementSale,
		MovementAdjustment,
		MovementReservation,
		MovementRelease,
		MovementTransfer,
	}
}

// ParseMovementType validates a raw string against the closed movement set.
func ParseMovementType(raw string) (MovementType, error) {
	switch mt := MovementType(raw); mt {
	case MovementRestock, MovementSale, MovementAdjustment,
		MovementReservation, MovementRelease, MovementTransfer:
		return mt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMovementType, raw)
	}
}

// Direction returns the sign a movement type imposes on quantity change:
// +1 for increasing types (restock, release), -1 for decreasing types
// (sale, reservation), 0 for types that may move either way (adjustment,
// transfer).
func (mt MovementType) Direction() int {
	switch mt {
	case MovementRestock, MovementRelease:
		return 1
	case MovementSale, MovementReservation:
		return -1
	default:
		return 0
	}
}

// IsValid reports membership in the closed movement set.
func (mt MovementType) IsValid() bool {
	_, err := ParseMovementType(string(mt))
	return err == nil
}

// StockMovement is one append-only audit record. PreviousStock and NewStock
// capture the balance transition at commit time so history stays readable
// after later movements.
type StockMovement struct {
	ID               string       `json:"id" gorm:"type:uuid;primaryKey"`
	InventoryItemID  string       `json:"inventory_item_id" gorm:"type:uuid;not null;index"`
	MovementType     MovementType `json:"movement_type" gorm:"type:varchar(20);not null;index"`
	QuantityChange   int          `json:"quantity_change" gorm:"not null"`
	PreviousStock    int          `json:"previous_stock" gorm:"not null"`
	NewStock         int          `json:"new_stock" gorm:"not null"`
	Reason           string       `json:"reason,omitempty"`
	PerformedBy      *string      `json:"performed_by,omitempty" gorm:"type:uuid;index"`
	ReferenceOrderID *string      `json:"reference_order_id,omitempty" gorm:"type:uuid"`
	BatchID          *string      `json:"batch_id,omitempty" gorm:"index"`
	IdempotencyKey   *string      `json:"idempotency_key,omitempty" gorm:"uniqueIndex"`
	PerformedAt      time.Time    `json:"performed_at" gorm:"not null;index"`
	CreatedAt        time.Time    `json:"created_at"`
}

// TableName specifies the table name for StockMovement
func (StockMovement) TableName() string {
	return "stock_movements"
}

// IsSystemMovement reports whether the movement was recorded without a human
// actor (consumer-driven or automated flows).
func (m *StockMovement) IsSystemMovement() bool {
	return m.PerformedBy == nil
}

// MovementFilter narrows a movement search. Zero-valued fields are ignored;
// set fields combine conjunctively.
type MovementFilter struct {
	MovementType *MovementType
	PerformedBy  *string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}

// HistoryPage controls a single item's movement history listing.
type HistoryPage struct {
	Limit                  int
	Offset                 int
	IncludeSystemMovements bool
}

// AnalyticsWindow bounds a movement aggregation. GroupBy currently accepts
// only GroupByMovementType.
type AnalyticsWindow struct {
	StartDate time.Time
	EndDate   time.Time
	GroupBy   string
}

const GroupByMovementType = "movement_type"

// MovementAggregate is one analytics bucket. TotalQuantity sums absolute
// quantities, Impact sums signed quantities (positive means net stock gain).
type MovementAggregate struct {
	MovementType    MovementType `json:"movement_type"`
	TotalQuantity   int          `json:"total_quantity"`
	MovementCount   int          `json:"movement_count"`
	AverageQuantity float64      `json:"average_quantity"`
	Impact          int          `json:"impact"`
}

// MovementRepository defines data access for the append-only movement log.
// Read methods tolerate undecodable rows: implementations return the rows
// they could decode and count the rest in RowsScanned via MovementPage.
type MovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	FindByID(ctx context.Context, id string) (*StockMovement, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*StockMovement, error)
	FindByItem(ctx context.Context, itemID string, page HistoryPage) (*MovementPage, error)
	FindByFilter(ctx context.Context, filter MovementFilter) (*MovementPage, error)
	FindByBatch(ctx context.Context, batchID string) (*MovementPage, error)
	FindInWindow(ctx context.Context, start, end time.Time) (*MovementPage, error)
}

// MovementPage is a decoded result set. RowsScanned counts every row the
// store visited, including ones skipped because they no longer decode.
type MovementPage struct {
	Movements   []StockMovement
	RowsScanned int
}

// Skipped returns how many scanned rows failed to decode.
func (p *MovementPage) Skipped() int {
	return p.RowsScanned - len(p.Movements)
}
