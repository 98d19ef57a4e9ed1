package query

import (
	"context"
	"fmt"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// CheckAvailabilityQuery represents the query to check purchasable stock for
// a product.
type CheckAvailabilityQuery struct {
	ProductID string
	Quantity  int
}

// AvailabilityResult reports whether the requested quantity is available.
type AvailabilityResult struct {
	ProductID      string `json:"product_id"`
	Requested      int    `json:"requested"`
	AvailableStock int    `json:"available_stock"`
	Available      bool   `json:"available"`
}

// CheckAvailabilityHandler handles check availability query
type CheckAvailabilityHandler struct {
	items domain.ItemRepository
}

// NewCheckAvailabilityHandler creates a new check availability handler
func NewCheckAvailabilityHandler(items domain.ItemRepository) *CheckAvailabilityHandler {
	return &CheckAvailabilityHandler{items: items}
}

// Handle executes the check availability query. Inactive items report as
// unavailable regardless of their counters.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, query CheckAvailabilityQuery) (*AvailabilityResult, error) {
	if query.ProductID == "" {
		return nil, fmt.Errorf("product_id is required")
	}
	if query.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	item, err := h.items.FindByProductID(ctx, query.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	return &AvailabilityResult{
		ProductID:      query.ProductID,
		Requested:      query.Quantity,
		AvailableStock: item.AvailableStock,
		Available:      item.IsActive && item.AvailableStock >= query.Quantity,
	}, nil
}
