package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/andrewkhoh/farmstand-inventory/pkg/logger"
)

// Publisher wraps Kafka producer
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

// PublishMovementRecorded publishes a stock movement event with tracing
func (p *Publisher) PublishMovementRecorded(ctx context.Context, event MovementRecordedEvent) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish.movement_recorded",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", TopicStockMovements),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", EventTypeMovementRecorded),
			attribute.String("movement.id", event.MovementID),
			attribute.String("movement.type", event.MovementType),
			attribute.Int("movement.quantity_change", event.QuantityChange),
		),
	)
	defer span.End()

	event.EventType = EventTypeMovementRecorded
	keyed := fmt.Sprintf("item_%s", event.InventoryItemID)
	return p.publish(ctx, span, TopicStockMovements, keyed, &event.EventID, event.EventType, func() ([]byte, error) {
		event.Timestamp = time.Now()
		return json.Marshal(event)
	})
}

// PublishStockLevelLow publishes a low stock alert with tracing
func (p *Publisher) PublishStockLevelLow(ctx context.Context, event StockLevelLowEvent) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish.stock_level_low",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", TopicStockAlerts),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", EventTypeStockLevelLow),
			attribute.String("item.id", event.InventoryItemID),
			attribute.Int("item.available_stock", event.AvailableStock),
		),
	)
	defer span.End()

	event.EventType = EventTypeStockLevelLow
	keyed := fmt.Sprintf("item_%s", event.InventoryItemID)
	return p.publish(ctx, span, TopicStockAlerts, keyed, &event.EventID, event.EventType, func() ([]byte, error) {
		event.Timestamp = time.Now()
		return json.Marshal(event)
	})
}

// publish marshals the event, injects trace context into headers and sends
// the message through the sync producer.
func (p *Publisher) publish(ctx context.Context, span trace.Span, topic, key string, eventID *string, eventType string, marshal func() ([]byte, error)) error {
	if *eventID == "" {
		*eventID = fmt.Sprintf("evt_%d", time.Now().UnixNano())
	}
	span.SetAttributes(attribute.String("event.id", *eventID))

	eventBytes, err := marshal()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(*eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Logger.Error().
			Err(err).
			Str("topic", topic).
			Str("event_type", eventType).
			Str("trace_id", span.SpanContext().TraceID().String()).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.Logger.Info().
		Str("event_id", *eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Str("trace_id", span.SpanContext().TraceID().String()).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
