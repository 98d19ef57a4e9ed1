package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation for the Stock Ledger Service
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	// Swagger UI
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// CreateItem godoc
// @Summary Create inventory item
// @Description Create a new tracked inventory item; a non-zero initial stock is entered as a restock movement
// @Tags Items
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{product_id=string,initial_stock=int,minimum_threshold=int,maximum_threshold=int,is_active=bool,is_visible_to_customers=bool} true "Item data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/ledger/items [post]
func (h *LedgerHandler) CreateItemDoc() {}

// ListItems godoc
// @Summary List inventory items
// @Description Get a paginated list of inventory items, optionally only those below their minimum threshold
// @Tags Items
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Param low_stock query bool false "Only items below minimum threshold"
// @Success 200 {object} object{success=bool,data=array}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /api/ledger/items [get]
func (h *LedgerHandler) ListItemsDoc() {}

// GetItem godoc
// @Summary Get inventory item by ID
// @Description Get an inventory item with its current, reserved and available stock
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/ledger/items/{id} [get]
func (h *LedgerHandler) GetItemDoc() {}

// GetItemByProduct godoc
// @Summary Get inventory item by product ID
// @Description Get the inventory item tracking a given product
// @Tags Items
// @Produce json
// @Param product_id path string true "Product ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/ledger/items/product/{product_id} [get]
func (h *LedgerHandler) GetItemByProductDoc() {}

// CheckAvailability godoc
// @Summary Check product availability
// @Description Check whether the requested quantity of a product is available for purchase
// @Tags Items
// @Produce json
// @Param product_id path string true "Product ID"
// @Param quantity query int false "Requested quantity (default: 1)"
// @Success 200 {object} object{success=bool,data=object{product_id=string,requested=int,available_stock=int,available=bool}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/ledger/availability/{product_id} [get]
func (h *LedgerHandler) CheckAvailabilityDoc() {}

// RecordMovement godoc
// @Summary Record stock movement
// @Description Apply a stock change and its audit record in one transaction
// @Tags Movements
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{item_id=string,movement_type=string,quantity_change=int,reserved_stock_change=int,expected_previous_stock=int,reason=string,reference_order_id=string,idempotency_key=string} true "Movement data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/ledger/movements [post]
func (h *LedgerHandler) RecordMovementDoc() {}

// UpdateStock godoc
// @Summary Set stock to an absolute level
// @Description Set an item's stock to a target level; the difference is recorded as a movement
// @Tags Movements
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body object{new_current_stock=int,new_reserved_stock=int,movement_type=string,reason=string} true "Target stock data"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/ledger/items/{id}/stock [patch]
func (h *LedgerHandler) UpdateStockDoc() {}

// ProcessBatch godoc
// @Summary Process movement batch
// @Description Record several movements under one batch id; entries succeed or fail independently
// @Tags Movements
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{batch_id=string,movements=array} true "Batch data"
// @Success 200 {object} object{success=bool,message=string,data=object{batch_id=string,total_processed=int,succeeded=array,failed=array}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/ledger/movements/batch [post]
func (h *LedgerHandler) ProcessBatchDoc() {}

// MovementHistory godoc
// @Summary Get item movement history
// @Description Get an item's movements, newest first; undecodable audit rows are skipped and counted
// @Tags Movements
// @Security BearerAuth
// @Produce json
// @Param id path string true "Item ID"
// @Param limit query int false "Limit (default: 50, max: 100)"
// @Param offset query int false "Offset"
// @Param include_system query bool false "Include system movements"
// @Success 200 {object} object{success=bool,data=object{movements=array,rows_scanned=int,rows_skipped=int}}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/ledger/items/{id}/movements [get]
func (h *LedgerHandler) MovementHistoryDoc() {}

// SearchMovements godoc
// @Summary Search stock movements
// @Description Search movements by type, actor and date range; all given filters must match
// @Tags Movements
// @Security BearerAuth
// @Produce json
// @Param movement_type query string false "Movement type"
// @Param performed_by query string false "Acting user ID"
// @Param start_date query string false "Start date (RFC3339)"
// @Param end_date query string false "End date (RFC3339)"
// @Param limit query int false "Limit (default: 50, max: 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=object{movements=array,rows_scanned=int,rows_skipped=int}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/ledger/movements [get]
func (h *LedgerHandler) SearchMovementsDoc() {}

// BatchMovements godoc
// @Summary Get movements for a batch
// @Description Get all movements recorded under a batch id, in commit order
// @Tags Movements
// @Security BearerAuth
// @Produce json
// @Param batch_id path string true "Batch ID"
// @Success 200 {object} object{success=bool,data=object{movements=array,rows_scanned=int,rows_skipped=int}}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/ledger/movements/batch/{batch_id} [get]
func (h *LedgerHandler) BatchMovementsDoc() {}

// MovementAnalytics godoc
// @Summary Movement analytics
// @Description Aggregate movements per type over a time window (default: last 30 days)
// @Tags Analytics
// @Security BearerAuth
// @Produce json
// @Param start_date query string false "Start date (RFC3339)"
// @Param end_date query string false "End date (RFC3339)"
// @Param group_by query string false "Grouping dimension (movement_type)"
// @Success 200 {object} object{success=bool,data=object{start_date=string,end_date=string,group_by=string,aggregates=array,movement_count=int}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/ledger/movements/analytics [get]
func (h *LedgerHandler) MovementAnalyticsDoc() {}

// InvalidatePermissions godoc
// @Summary Invalidate cached permissions
// @Description Drop an actor's cached permission grant so the next check refetches it (Admin only)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param actor_id path string true "Actor ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/ledger/permissions/{actor_id}/invalidate [post]
func (h *LedgerHandler) InvalidatePermissionsDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *LedgerHandler) HealthCheckDoc() {}
