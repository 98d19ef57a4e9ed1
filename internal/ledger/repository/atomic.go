package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// GormAtomic runs ledger commits inside a single database transaction. The
// balance update and the movement insert either both land or neither does.
type GormAtomic struct {
	db *gorm.DB
}

func NewGormAtomic(db *gorm.DB) *GormAtomic {
	return &GormAtomic{db: db}
}

func (a *GormAtomic) RunInTx(ctx context.Context, fn func(items domain.ItemRepository, movements domain.MovementRepository) error) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormItemRepository(tx), NewGormMovementRepository(tx))
	})
}
