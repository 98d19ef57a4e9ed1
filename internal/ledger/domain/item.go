package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// InventoryItem is the balance row for a single product. CurrentStock is the
// physical on-hand quantity, ReservedStock the portion promised to open orders,
// and AvailableStock is always CurrentStock minus ReservedStock. AvailableStock
// is persisted for cheap filtering but recomputed on every write.
type InventoryItem struct {
	ID                   string         `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID            string         `json:"product_id" gorm:"type:uuid;not null;uniqueIndex"`
	CurrentStock         int            `json:"current_stock" gorm:"not null;default:0"`
	ReservedStock        int            `json:"reserved_stock" gorm:"not null;default:0"`
	AvailableStock       int            `json:"available_stock" gorm:"not null;default:0"`
	MinimumThreshold     int            `json:"minimum_threshold" gorm:"not null;default:0"`
	MaximumThreshold     *int           `json:"maximum_threshold,omitempty"`
	IsActive             bool           `json:"is_active" gorm:"not null;default:true"`
	IsVisibleToCustomers bool           `json:"is_visible_to_customers" gorm:"not null;default:true"`
	LastStockUpdate      time.Time      `json:"last_stock_update"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for InventoryItem
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// Snapshot freezes the balance fields used to validate and commit a movement.
func (i *InventoryItem) Snapshot() BalanceSnapshot {
	return BalanceSnapshot{
		ItemID:        i.ID,
		CurrentStock:  i.CurrentStock,
		ReservedStock: i.ReservedStock,
	}
}

// IsLowStock reports whether available stock has fallen below the configured
// minimum threshold.
func (i *InventoryItem) IsLowStock() bool {
	return i.AvailableStock < i.MinimumThreshold
}

// BalanceSnapshot is the point-in-time view of an item's counters that a
// movement is validated against. CurrentStock doubles as the optimistic
// concurrency token: a commit only applies if the row still carries it.
type BalanceSnapshot struct {
	ItemID        string
	CurrentStock  int
	ReservedStock int
}

// Available returns the sellable quantity for the snapshot.
func (s BalanceSnapshot) Available() int {
	return s.CurrentStock - s.ReservedStock
}

// ItemRepository defines data access for inventory balance rows.
type ItemRepository interface {
	Create(ctx context.Context, item *InventoryItem) error
	FindByID(ctx context.Context, id string) (*InventoryItem, error)
	FindByProductID(ctx context.Context, productID string) (*InventoryItem, error)
	FindAll(ctx context.Context, limit, offset int) ([]InventoryItem, error)
	FindLowStock(ctx context.Context, limit, offset int) ([]InventoryItem, error)
	Update(ctx context.Context, item *InventoryItem) error
	// ApplyBalanceChange sets the stock counters produced by a validated
	// movement, guarded by the snapshot's CurrentStock. It returns
	// ErrConcurrentModification when the row changed since the snapshot
	// was taken.
	ApplyBalanceChange(ctx context.Context, change BalanceChange) error
	Delete(ctx context.Context, id string) error
}

// BalanceChange carries the counter transition for one committed movement.
type BalanceChange struct {
	ItemID        string
	PreviousStock int
	NewStock      int
	ReservedStock int
	UpdatedAt     time.Time
}
