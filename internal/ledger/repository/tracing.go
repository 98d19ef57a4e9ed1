package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

var tracer = otel.Tracer("ledger-repository")

// GormItemRepositoryWithTracing wraps GormItemRepository with tracing
type GormItemRepositoryWithTracing struct {
	*GormItemRepository
}

// NewGormItemRepositoryWithTracing creates a new repository with tracing
func NewGormItemRepositoryWithTracing(db *gorm.DB) *GormItemRepositoryWithTracing {
	return &GormItemRepositoryWithTracing{
		GormItemRepository: NewGormItemRepository(db),
	}
}

func (r *GormItemRepositoryWithTracing) Create(ctx context.Context, item *domain.InventoryItem) error {
	ctx, span := tracer.Start(ctx, "item_repository.Create",
		trace.WithAttributes(
			attribute.String("item.product_id", item.ProductID),
			attribute.Int("item.current_stock", item.CurrentStock),
		),
	)
	defer span.End()

	err := r.GormItemRepository.Create(ctx, item)
	if err != nil {
		recordSpanError(span, err)
		return err
	}

	span.SetAttributes(attribute.String("item.id", item.ID))
	return nil
}

func (r *GormItemRepositoryWithTracing) FindByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "item_repository.FindByID",
		trace.WithAttributes(attribute.String("item.id", id)),
	)
	defer span.End()

	item, err := r.GormItemRepository.FindByID(ctx, id)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("item.current_stock", item.CurrentStock),
		attribute.Int("item.available_stock", item.AvailableStock),
	)
	return item, nil
}

func (r *GormItemRepositoryWithTracing) FindByProductID(ctx context.Context, productID string) (*domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "item_repository.FindByProductID",
		trace.WithAttributes(attribute.String("item.product_id", productID)),
	)
	defer span.End()

	item, err := r.GormItemRepository.FindByProductID(ctx, productID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("item.id", item.ID))
	return item, nil
}

func (r *GormItemRepositoryWithTracing) FindAll(ctx context.Context, limit, offset int) ([]domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "item_repository.FindAll",
		trace.WithAttributes(
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	items, err := r.GormItemRepository.FindAll(ctx, limit, offset)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(items)))
	return items, nil
}

func (r *GormItemRepositoryWithTracing) FindLowStock(ctx context.Context, limit, offset int) ([]domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "item_repository.FindLowStock",
		trace.WithAttributes(
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	items, err := r.GormItemRepository.FindLowStock(ctx, limit, offset)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(items)))
	return items, nil
}

func (r *GormItemRepositoryWithTracing) Update(ctx context.Context, item *domain.InventoryItem) error {
	ctx, span := tracer.Start(ctx, "item_repository.Update",
		trace.WithAttributes(attribute.String("item.id", item.ID)),
	)
	defer span.End()

	if err := r.GormItemRepository.Update(ctx, item); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

func (r *GormItemRepositoryWithTracing) ApplyBalanceChange(ctx context.Context, change domain.BalanceChange) error {
	ctx, span := tracer.Start(ctx, "item_repository.ApplyBalanceChange",
		trace.WithAttributes(
			attribute.String("item.id", change.ItemID),
			attribute.Int("stock.previous", change.PreviousStock),
			attribute.Int("stock.new", change.NewStock),
		),
	)
	defer span.End()

	if err := r.GormItemRepository.ApplyBalanceChange(ctx, change); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

func (r *GormItemRepositoryWithTracing) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "item_repository.Delete",
		trace.WithAttributes(attribute.String("item.id", id)),
	)
	defer span.End()

	if err := r.GormItemRepository.Delete(ctx, id); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

// GormMovementRepositoryWithTracing wraps GormMovementRepository with tracing
type GormMovementRepositoryWithTracing struct {
	*GormMovementRepository
}

// NewGormMovementRepositoryWithTracing creates a new repository with tracing
func NewGormMovementRepositoryWithTracing(db *gorm.DB) *GormMovementRepositoryWithTracing {
	return &GormMovementRepositoryWithTracing{
		GormMovementRepository: NewGormMovementRepository(db),
	}
}

func (r *GormMovementRepositoryWithTracing) Create(ctx context.Context, movement *domain.StockMovement) error {
	ctx, span := tracer.Start(ctx, "movement_repository.Create",
		trace.WithAttributes(
			attribute.String("movement.item_id", movement.InventoryItemID),
			attribute.String("movement.type", string(movement.MovementType)),
			attribute.Int("movement.quantity_change", movement.QuantityChange),
		),
	)
	defer span.End()

	err := r.GormMovementRepository.Create(ctx, movement)
	if err != nil {
		recordSpanError(span, err)
		return err
	}

	span.SetAttributes(attribute.String("movement.id", movement.ID))
	return nil
}

func (r *GormMovementRepositoryWithTracing) FindByID(ctx context.Context, id string) (*domain.StockMovement, error) {
	ctx, span := tracer.Start(ctx, "movement_repository.FindByID",
		trace.WithAttributes(attribute.String("movement.id", id)),
	)
	defer span.End()

	movement, err := r.GormMovementRepository.FindByID(ctx, id)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return movement, nil
}

func (r *GormMovementRepositoryWithTracing) FindByIdempotencyKey(ctx context.Context, key string) (*domain.StockMovement, error) {
	ctx, span := tracer.Start(ctx, "movement_repository.FindByIdempotencyKey")
	defer span.End()

	movement, err := r.GormMovementRepository.FindByIdempotencyKey(ctx, key)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return movement, nil
}

func (r *GormMovementRepositoryWithTracing) FindByItem(ctx context.Context, itemID string, page domain.HistoryPage) (*domain.MovementPage, error) {
	ctx, span := tracer.Start(ctx, "movement_repository.FindByItem",
		trace.WithAttributes(
			attribute.String("movement.item_id", itemID),
			attribute.Int("query.limit", page.Limit),
			attribute.Int("query.offset", page.Offset),
			attribute.Bool("query.include_system", page.IncludeSystemMovements),
		),
	)
	defer span.End()

	result, err := r.GormMovementRepository.FindByItem(ctx, itemID, page)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("result.count", len(result.Movements)),
		attribute.Int("result.skipped", result.Skipped()),
	)
	return result, nil
}

func (r *GormMovementRepositoryWithTracing) FindByFilter(ctx context.Context, filter domain.MovementFilter) (*domain.MovementPage, error) {
	ctx, span := tracer.Start(ctx, "movement_repository.FindByFilter")
	defer span.End()

	result, err := r.GormMovementRepository.FindByFilter(ctx, filter)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("result.count", len(result.Movements)),
		attribute.Int("result.skipped", result.Skipped()),
	)
	return result, nil
}

func (r *GormMovementRepositoryWithTracing) FindByBatch(ctx context.Context, batchID string) (*domain.MovementPage, error) {
	ctx, span := tracer.Start(ctx, "movement_repository.FindByBatch",
		trace.WithAttributes(attribute.String("movement.batch_id", batchID)),
	)
	defer span.End()

	result, err := r.GormMovementRepository.FindByBatch(ctx, batchID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(result.Movements)))
	return result, nil
}

func (r *GormMovementRepositoryWithTracing) FindInWindow(ctx context.Context, start, end time.Time) (*domain.MovementPage, error) {
	ctx, span := tracer.Start(ctx, "movement_repository.FindInWindow",
		trace.WithAttributes(
			attribute.String("window.start", start.Format(time.RFC3339)),
			attribute.String("window.end", end.Format(time.RFC3339)),
		),
	)
	defer span.End()

	result, err := r.GormMovementRepository.FindInWindow(ctx, start, end)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("result.count", len(result.Movements)),
		attribute.Int("result.skipped", result.Skipped()),
	)
	return result, nil
}

// GormAtomicWithTracing wraps the transaction runner with a commit span.
type GormAtomicWithTracing struct {
	*GormAtomic
}

func NewGormAtomicWithTracing(db *gorm.DB) *GormAtomicWithTracing {
	return &GormAtomicWithTracing{GormAtomic: NewGormAtomic(db)}
}

func (a *GormAtomicWithTracing) RunInTx(ctx context.Context, fn func(items domain.ItemRepository, movements domain.MovementRepository) error) error {
	ctx, span := tracer.Start(ctx, "ledger.transaction")
	defer span.End()

	if err := a.GormAtomic.RunInTx(ctx, fn); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
