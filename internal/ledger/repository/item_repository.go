package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.InventoryItem{})
}

func (r *GormItemRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.LastStockUpdate.IsZero() {
		item.LastStockUpdate = time.Now().UTC()
	}
	item.AvailableStock = item.CurrentStock - item.ReservedStock
	err := r.db.WithContext(ctx).Create(item).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrItemExists
	}
	return wrapStoreErr("create item", err)
}

func (r *GormItemRepository) FindByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, wrapStoreErr("find item", err)
	}
	return &item, nil
}

func (r *GormItemRepository) FindByProductID(ctx context.Context, productID string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, wrapStoreErr("find item by product", err)
	}
	return &item, nil
}

func (r *GormItemRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&items).Error
	return items, wrapStoreErr("list items", err)
}

func (r *GormItemRepository) FindLowStock(ctx context.Context, limit, offset int) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	err := r.db.WithContext(ctx).
		Where("available_stock < minimum_threshold AND is_active = ?", true).
		Order("available_stock ASC").
		Limit(limit).Offset(offset).
		Find(&items).Error
	return items, wrapStoreErr("list low stock items", err)
}

func (r *GormItemRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	item.AvailableStock = item.CurrentStock - item.ReservedStock
	return wrapStoreErr("update item", r.db.WithContext(ctx).Save(item).Error)
}

// ApplyBalanceChange performs the compare-and-set half of a movement commit.
// The WHERE clause pins the row to the snapshot's stock value; zero affected
// rows means another writer got there first (or the item vanished).
func (r *GormItemRepository) ApplyBalanceChange(ctx context.Context, change domain.BalanceChange) error {
	result := r.db.WithContext(ctx).
		Model(&domain.InventoryItem{}).
		Where("id = ? AND current_stock = ?", change.ItemID, change.PreviousStock).
		Updates(map[string]interface{}{
			"current_stock":     change.NewStock,
			"reserved_stock":    change.ReservedStock,
			"available_stock":   change.NewStock - change.ReservedStock,
			"last_stock_update": change.UpdatedAt,
			"updated_at":        change.UpdatedAt,
		})
	if result.Error != nil {
		return wrapStoreErr("apply balance change", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&domain.InventoryItem{}).
			Where("id = ?", change.ItemID).
			Count(&count).Error; err != nil {
			return wrapStoreErr("apply balance change", err)
		}
		if count == 0 {
			return domain.ErrItemNotFound
		}
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *GormItemRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.InventoryItem{})
	if result.Error != nil {
		return wrapStoreErr("delete item", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// wrapStoreErr classifies storage failures as unavailability so callers can
// treat them as retryable. Not-found and duplicate cases are mapped before
// this is reached.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.StoreError{Op: op, Err: err}
}
