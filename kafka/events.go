package kafka

import "time"

// MovementRecordedEvent announces one committed stock movement.
type MovementRecordedEvent struct {
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	MovementID      string    `json:"movement_id"`
	InventoryItemID string    `json:"inventory_item_id"`
	MovementType    string    `json:"movement_type"`
	QuantityChange  int       `json:"quantity_change"`
	PreviousStock   int       `json:"previous_stock"`
	NewStock        int       `json:"new_stock"`
	PerformedBy     *string   `json:"performed_by,omitempty"`
	BatchID         *string   `json:"batch_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// StockLevelLowEvent fires when a commit leaves available stock below the
// item's minimum threshold.
type StockLevelLowEvent struct {
	EventID          string    `json:"event_id"`
	EventType        string    `json:"event_type"`
	InventoryItemID  string    `json:"inventory_item_id"`
	ProductID        string    `json:"product_id"`
	AvailableStock   int       `json:"available_stock"`
	MinimumThreshold int       `json:"minimum_threshold"`
	Timestamp        time.Time `json:"timestamp"`
}

// OrderCompletedEvent is consumed from the order service; each line becomes
// a sale movement.
type OrderCompletedEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	Lines     []OrderLine `json:"lines"`
	Timestamp time.Time   `json:"timestamp"`
}

// OrderLine is one purchased product inside an order.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Event types
const (
	EventTypeMovementRecorded = "stock.movement.recorded"
	EventTypeStockLevelLow    = "stock.level.low"
	EventTypeOrderCompleted   = "order.completed"
)

// Kafka topics
const (
	TopicStockMovements = "stock-movements"
	TopicStockAlerts    = "stock-alerts"
	TopicOrderCompleted = "order-completed"
)
