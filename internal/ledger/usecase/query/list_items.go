package query

import (
	"context"
	"fmt"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// ListItemsQuery represents the query to list inventory items
type ListItemsQuery struct {
	Limit        int
	Offset       int
	LowStockOnly bool
}

// ListItemsHandler handles list items query
type ListItemsHandler struct {
	items domain.ItemRepository
}

// NewListItemsHandler creates a new list items handler
func NewListItemsHandler(items domain.ItemRepository) *ListItemsHandler {
	return &ListItemsHandler{items: items}
}

// Handle executes the list items query
func (h *ListItemsHandler) Handle(ctx context.Context, query ListItemsQuery) ([]domain.InventoryItem, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}

	if query.Limit > 100 {
		query.Limit = 100
	}

	if query.LowStockOnly {
		items, err := h.items.FindLowStock(ctx, query.Limit, query.Offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list low stock items: %w", err)
		}
		return items, nil
	}

	items, err := h.items.FindAll(ctx, query.Limit, query.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return items, nil
}
