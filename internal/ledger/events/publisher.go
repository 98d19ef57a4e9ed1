package events

import (
	"context"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/kafka"
	"github.com/andrewkhoh/farmstand-inventory/pkg/logger"
)

// KafkaPublisher announces committed ledger facts on Kafka. Publish failures
// are logged and dropped: the movement is already durable and observability
// must not undo it.
type KafkaPublisher struct {
	publisher *kafka.Publisher
}

// NewKafkaPublisher creates a publisher backed by the shared Kafka producer.
func NewKafkaPublisher(publisher *kafka.Publisher) *KafkaPublisher {
	return &KafkaPublisher{publisher: publisher}
}

func (p *KafkaPublisher) MovementRecorded(ctx context.Context, movement *domain.StockMovement) {
	err := p.publisher.PublishMovementRecorded(ctx, kafka.MovementRecordedEvent{
		MovementID:      movement.ID,
		InventoryItemID: movement.InventoryItemID,
		MovementType:    string(movement.MovementType),
		QuantityChange:  movement.QuantityChange,
		PreviousStock:   movement.PreviousStock,
		NewStock:        movement.NewStock,
		PerformedBy:     movement.PerformedBy,
		BatchID:         movement.BatchID,
	})
	if err != nil {
		logger.WithContext(ctx).Warn().
			Err(err).
			Str("movement_id", movement.ID).
			Msg("Dropped movement recorded event")
	}
}

func (p *KafkaPublisher) StockLevelLow(ctx context.Context, item *domain.InventoryItem) {
	err := p.publisher.PublishStockLevelLow(ctx, kafka.StockLevelLowEvent{
		InventoryItemID:  item.ID,
		ProductID:        item.ProductID,
		AvailableStock:   item.AvailableStock,
		MinimumThreshold: item.MinimumThreshold,
	})
	if err != nil {
		logger.WithContext(ctx).Warn().
			Err(err).
			Str("item_id", item.ID).
			Msg("Dropped stock level low event")
	}
}

// NopPublisher is used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) MovementRecorded(context.Context, *domain.StockMovement) {}

func (NopPublisher) StockLevelLow(context.Context, *domain.InventoryItem) {}
