package query

import (
	"context"
	"fmt"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// GetItemQuery represents the query to get an inventory item by id or by
// product id.
type GetItemQuery struct {
	ID        string
	ProductID string
}

// GetItemHandler handles get item query
type GetItemHandler struct {
	items domain.ItemRepository
}

// NewGetItemHandler creates a new get item handler
func NewGetItemHandler(items domain.ItemRepository) *GetItemHandler {
	return &GetItemHandler{items: items}
}

// Handle executes the get item query
func (h *GetItemHandler) Handle(ctx context.Context, query GetItemQuery) (*domain.InventoryItem, error) {
	switch {
	case query.ID != "":
		item, err := h.items.FindByID(ctx, query.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get item: %w", err)
		}
		return item, nil
	case query.ProductID != "":
		item, err := h.items.FindByProductID(ctx, query.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to get item: %w", err)
		}
		return item, nil
	default:
		return nil, fmt.Errorf("id or product_id is required")
	}
}
