package ledger

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/delivery/http"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/repository"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/usecase/command"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/usecase/query"
)

// ProvideItemRepository provides the traced item repository
func ProvideItemRepository(db *gorm.DB) domain.ItemRepository {
	return repository.NewGormItemRepositoryWithTracing(db)
}

// ProvideMovementRepository provides the traced movement repository
func ProvideMovementRepository(db *gorm.DB) domain.MovementRepository {
	return repository.NewGormMovementRepositoryWithTracing(db)
}

// ProvideAtomic provides the traced transaction runner
func ProvideAtomic(db *gorm.DB) domain.Atomic {
	return repository.NewGormAtomicWithTracing(db)
}

// Command Handlers Providers
func ProvideCreateItemHandler(gate domain.PermissionGate, atomic domain.Atomic, telemetry domain.TelemetrySink) *command.CreateItemHandler {
	return command.NewCreateItemHandler(gate, atomic, telemetry)
}

func ProvideRecordMovementHandler(
	gate domain.PermissionGate,
	atomic domain.Atomic,
	movements domain.MovementRepository,
	telemetry domain.TelemetrySink,
	publisher domain.EventPublisher,
) *command.RecordMovementHandler {
	return command.NewRecordMovementHandler(gate, atomic, movements, telemetry, publisher)
}

func ProvideUpdateStockHandler(
	gate domain.PermissionGate,
	atomic domain.Atomic,
	telemetry domain.TelemetrySink,
	publisher domain.EventPublisher,
) *command.UpdateStockHandler {
	return command.NewUpdateStockHandler(gate, atomic, telemetry, publisher)
}

func ProvideProcessBatchHandler(
	gate domain.PermissionGate,
	record *command.RecordMovementHandler,
	telemetry domain.TelemetrySink,
) *command.ProcessBatchHandler {
	return command.NewProcessBatchHandler(gate, record, telemetry)
}

// Query Handlers Providers
func ProvideGetItemHandler(items domain.ItemRepository) *query.GetItemHandler {
	return query.NewGetItemHandler(items)
}

func ProvideListItemsHandler(items domain.ItemRepository) *query.ListItemsHandler {
	return query.NewListItemsHandler(items)
}

func ProvideCheckAvailabilityHandler(items domain.ItemRepository) *query.CheckAvailabilityHandler {
	return query.NewCheckAvailabilityHandler(items)
}

func ProvideMovementHistoryHandler(
	gate domain.PermissionGate,
	movements domain.MovementRepository,
	telemetry domain.TelemetrySink,
) *query.MovementHistoryHandler {
	return query.NewMovementHistoryHandler(gate, movements, telemetry)
}

func ProvideMovementsByFilterHandler(
	gate domain.PermissionGate,
	movements domain.MovementRepository,
	telemetry domain.TelemetrySink,
) *query.MovementsByFilterHandler {
	return query.NewMovementsByFilterHandler(gate, movements, telemetry)
}

func ProvideBatchMovementsHandler(
	gate domain.PermissionGate,
	movements domain.MovementRepository,
	telemetry domain.TelemetrySink,
) *query.BatchMovementsHandler {
	return query.NewBatchMovementsHandler(gate, movements, telemetry)
}

func ProvideMovementAnalyticsHandler(
	gate domain.PermissionGate,
	movements domain.MovementRepository,
	telemetry domain.TelemetrySink,
) *query.MovementAnalyticsHandler {
	return query.NewMovementAnalyticsHandler(gate, movements, telemetry)
}

// CommandHandlers is a struct that holds all command handlers
type CommandHandlers struct {
	CreateItemHandler     *command.CreateItemHandler
	RecordMovementHandler *command.RecordMovementHandler
	UpdateStockHandler    *command.UpdateStockHandler
	ProcessBatchHandler   *command.ProcessBatchHandler
}

// QueryHandlers is a struct that holds all query handlers
type QueryHandlers struct {
	GetItemHandler           *query.GetItemHandler
	ListItemsHandler         *query.ListItemsHandler
	CheckAvailabilityHandler *query.CheckAvailabilityHandler
	MovementHistoryHandler   *query.MovementHistoryHandler
	MovementsByFilterHandler *query.MovementsByFilterHandler
	BatchMovementsHandler    *query.BatchMovementsHandler
	MovementAnalyticsHandler *query.MovementAnalyticsHandler
}

// ProvideCommandHandlers provides all command handlers
func ProvideCommandHandlers(
	createItemHandler *command.CreateItemHandler,
	recordMovementHandler *command.RecordMovementHandler,
	updateStockHandler *command.UpdateStockHandler,
	processBatchHandler *command.ProcessBatchHandler,
) *CommandHandlers {
	return &CommandHandlers{
		CreateItemHandler:     createItemHandler,
		RecordMovementHandler: recordMovementHandler,
		UpdateStockHandler:    updateStockHandler,
		ProcessBatchHandler:   processBatchHandler,
	}
}

// ProvideQueryHandlers provides all query handlers
func ProvideQueryHandlers(
	getItemHandler *query.GetItemHandler,
	listItemsHandler *query.ListItemsHandler,
	checkAvailabilityHandler *query.CheckAvailabilityHandler,
	movementHistoryHandler *query.MovementHistoryHandler,
	movementsByFilterHandler *query.MovementsByFilterHandler,
	batchMovementsHandler *query.BatchMovementsHandler,
	movementAnalyticsHandler *query.MovementAnalyticsHandler,
) *QueryHandlers {
	return &QueryHandlers{
		GetItemHandler:           getItemHandler,
		ListItemsHandler:         listItemsHandler,
		CheckAvailabilityHandler: checkAvailabilityHandler,
		MovementHistoryHandler:   movementHistoryHandler,
		MovementsByFilterHandler: movementsByFilterHandler,
		BatchMovementsHandler:    batchMovementsHandler,
		MovementAnalyticsHandler: movementAnalyticsHandler,
	}
}

// ProvideLedgerHandler provides the HTTP handler over all use cases
func ProvideLedgerHandler(commands *CommandHandlers, queries *QueryHandlers, gate domain.PermissionGate) *http.LedgerHandler {
	return http.NewLedgerHandler(
		commands.CreateItemHandler,
		commands.RecordMovementHandler,
		commands.UpdateStockHandler,
		commands.ProcessBatchHandler,
		queries.GetItemHandler,
		queries.ListItemsHandler,
		queries.CheckAvailabilityHandler,
		queries.MovementHistoryHandler,
		queries.MovementsByFilterHandler,
		queries.BatchMovementsHandler,
		queries.MovementAnalyticsHandler,
		gate,
	)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideItemRepository,
	ProvideMovementRepository,
	ProvideAtomic,
)

var CommandHandlerSet = wire.NewSet(
	ProvideCreateItemHandler,
	ProvideRecordMovementHandler,
	ProvideUpdateStockHandler,
	ProvideProcessBatchHandler,
	ProvideCommandHandlers,
)

var QueryHandlerSet = wire.NewSet(
	ProvideGetItemHandler,
	ProvideListItemsHandler,
	ProvideCheckAvailabilityHandler,
	ProvideMovementHistoryHandler,
	ProvideMovementsByFilterHandler,
	ProvideBatchMovementsHandler,
	ProvideMovementAnalyticsHandler,
	ProvideQueryHandlers,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
)
