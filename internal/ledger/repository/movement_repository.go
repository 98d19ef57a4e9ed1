package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/pkg/logger"
)

type GormMovementRepository struct {
	db *gorm.DB
}

func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

func (r *GormMovementRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.StockMovement{})
}

func (r *GormMovementRepository) Create(ctx context.Context, movement *domain.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Create(movement).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) && movement.IdempotencyKey != nil {
		dup := &domain.DuplicateMovementError{IdempotencyKey: *movement.IdempotencyKey}
		if existing, lookupErr := r.FindByIdempotencyKey(ctx, *movement.IdempotencyKey); lookupErr == nil {
			dup.ExistingID = existing.ID
		}
		return dup
	}
	return wrapStoreErr("create movement", err)
}

func (r *GormMovementRepository) FindByID(ctx context.Context, id string) (*domain.StockMovement, error) {
	var movement domain.StockMovement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&movement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMovementNotFound
	}
	if err != nil {
		return nil, wrapStoreErr("find movement", err)
	}
	return &movement, nil
}

func (r *GormMovementRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.StockMovement, error) {
	var movement domain.StockMovement
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&movement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMovementNotFound
	}
	if err != nil {
		return nil, wrapStoreErr("find movement by idempotency key", err)
	}
	return &movement, nil
}

func (r *GormMovementRepository) FindByItem(ctx context.Context, itemID string, page domain.HistoryPage) (*domain.MovementPage, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.StockMovement{}).
		Where("inventory_item_id = ?", itemID)
	if !page.IncludeSystemMovements {
		q = q.Where("performed_by IS NOT NULL")
	}
	q = q.Order("performed_at DESC").Limit(page.Limit).Offset(page.Offset)
	return r.scanMovements(ctx, q, "find movements by item")
}

func (r *GormMovementRepository) FindByFilter(ctx context.Context, filter domain.MovementFilter) (*domain.MovementPage, error) {
	q := r.db.WithContext(ctx).Model(&domain.StockMovement{})
	if filter.MovementType != nil {
		q = q.Where("movement_type = ?", *filter.MovementType)
	}
	if filter.PerformedBy != nil {
		q = q.Where("performed_by = ?", *filter.PerformedBy)
	}
	if filter.StartDate != nil {
		q = q.Where("performed_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("performed_at <= ?", *filter.EndDate)
	}
	q = q.Order("performed_at DESC").Limit(filter.Limit).Offset(filter.Offset)
	return r.scanMovements(ctx, q, "find movements by filter")
}

func (r *GormMovementRepository) FindByBatch(ctx context.Context, batchID string) (*domain.MovementPage, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.StockMovement{}).
		Where("batch_id = ?", batchID).
		Order("performed_at ASC")
	return r.scanMovements(ctx, q, "find movements by batch")
}

func (r *GormMovementRepository) FindInWindow(ctx context.Context, start, end time.Time) (*domain.MovementPage, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.StockMovement{}).
		Where("performed_at >= ? AND performed_at <= ?", start, end).
		Order("performed_at ASC")
	return r.scanMovements(ctx, q, "find movements in window")
}

// scanMovements decodes row by row so one corrupt record cannot fail a whole
// audit query. Undecodable rows are logged and counted in RowsScanned.
func (r *GormMovementRepository) scanMovements(ctx context.Context, q *gorm.DB, op string) (*domain.MovementPage, error) {
	rows, err := q.Rows()
	if err != nil {
		return nil, wrapStoreErr(op, err)
	}
	defer rows.Close()

	page := &domain.MovementPage{Movements: []domain.StockMovement{}}
	for rows.Next() {
		page.RowsScanned++
		var movement domain.StockMovement
		if err := r.db.ScanRows(rows, &movement); err != nil {
			logger.WithContext(ctx).Warn().
				Err(err).
				Str("operation", op).
				Msg("Skipping undecodable stock movement row")
			continue
		}
		if err := validateMovementRow(&movement); err != nil {
			logger.WithContext(ctx).Warn().
				Err(err).
				Str("operation", op).
				Str("movement_id", movement.ID).
				Msg("Skipping invalid stock movement row")
			continue
		}
		page.Movements = append(page.Movements, movement)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(op, err)
	}
	return page, nil
}

// validateMovementRow guards historical reads against records that predate
// the current schema or were written by retired code paths.
func validateMovementRow(m *domain.StockMovement) error {
	if m.ID == "" || m.InventoryItemID == "" {
		return fmt.Errorf("movement row missing identifiers")
	}
	if !m.MovementType.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMovementType, m.MovementType)
	}
	if m.PerformedAt.IsZero() {
		return fmt.Errorf("movement %s has no performed_at", m.ID)
	}
	return nil
}
