//go:build wireinject
// +build wireinject

package ledger

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/delivery/http"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/events"
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(
	db *gorm.DB,
	gate domain.PermissionGate,
	telemetry domain.TelemetrySink,
	publisher domain.EventPublisher,
) (*http.LedgerHandler, error) {
	wire.Build(
		AllHandlersSet,
		ProvideLedgerHandler,
	)
	return nil, nil
}

// InitializeOrderHandler initializes the order event handler with all dependencies
func InitializeOrderHandler(
	db *gorm.DB,
	gate domain.PermissionGate,
	telemetry domain.TelemetrySink,
	publisher domain.EventPublisher,
) (*events.OrderHandler, error) {
	wire.Build(
		RepositorySet,
		ProvideRecordMovementHandler,
		ProvideProcessBatchHandler,
		events.NewOrderHandler,
	)
	return nil, nil
}
