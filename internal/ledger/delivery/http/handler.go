package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/usecase/command"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/usecase/query"
	"github.com/andrewkhoh/farmstand-inventory/pkg/logger"
)

// LedgerHandler handles HTTP requests for the stock ledger
type LedgerHandler struct {
	// Command handlers
	createItemHandler     *command.CreateItemHandler
	recordMovementHandler *command.RecordMovementHandler
	updateStockHandler    *command.UpdateStockHandler
	processBatchHandler   *command.ProcessBatchHandler

	// Query handlers
	getItemHandler           *query.GetItemHandler
	listItemsHandler         *query.ListItemsHandler
	checkAvailabilityHandler *query.CheckAvailabilityHandler
	movementHistoryHandler   *query.MovementHistoryHandler
	searchMovementsHandler   *query.MovementsByFilterHandler
	batchMovementsHandler    *query.BatchMovementsHandler
	analyticsHandler         *query.MovementAnalyticsHandler

	gate domain.PermissionGate
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(
	createItemHandler *command.CreateItemHandler,
	recordMovementHandler *command.RecordMovementHandler,
	updateStockHandler *command.UpdateStockHandler,
	processBatchHandler *command.ProcessBatchHandler,
	getItemHandler *query.GetItemHandler,
	listItemsHandler *query.ListItemsHandler,
	checkAvailabilityHandler *query.CheckAvailabilityHandler,
	movementHistoryHandler *query.MovementHistoryHandler,
	searchMovementsHandler *query.MovementsByFilterHandler,
	batchMovementsHandler *query.BatchMovementsHandler,
	analyticsHandler *query.MovementAnalyticsHandler,
	gate domain.PermissionGate,
) *LedgerHandler {
	return &LedgerHandler{
		createItemHandler:        createItemHandler,
		recordMovementHandler:    recordMovementHandler,
		updateStockHandler:       updateStockHandler,
		processBatchHandler:      processBatchHandler,
		getItemHandler:           getItemHandler,
		listItemsHandler:         listItemsHandler,
		checkAvailabilityHandler: checkAvailabilityHandler,
		movementHistoryHandler:   movementHistoryHandler,
		searchMovementsHandler:   searchMovementsHandler,
		batchMovementsHandler:    batchMovementsHandler,
		analyticsHandler:         analyticsHandler,
		gate:                     gate,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// movementPageResponse is the wire shape of a decoded movement page
type movementPageResponse struct {
	Movements   []domain.StockMovement `json:"movements"`
	RowsScanned int                    `json:"rows_scanned"`
	RowsSkipped int                    `json:"rows_skipped"`
}

func toMovementPageResponse(page *domain.MovementPage) movementPageResponse {
	return movementPageResponse{
		Movements:   page.Movements,
		RowsScanned: page.RowsScanned,
		RowsSkipped: page.Skipped(),
	}
}

// statusFromError maps ledger errors to HTTP status codes. The specific
// taxonomy checks run before the broad ones because IsClientError matches
// several of them.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateMovement),
		errors.Is(err, domain.ErrConcurrentModification),
		errors.Is(err, domain.ErrItemExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, domain.ErrPermissionUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// CreateItem handles POST /api/ledger/items
func (h *LedgerHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID            string `json:"product_id"`
		InitialStock         int    `json:"initial_stock"`
		MinimumThreshold     int    `json:"minimum_threshold"`
		MaximumThreshold     *int   `json:"maximum_threshold"`
		IsActive             *bool  `json:"is_active"`
		IsVisibleToCustomers *bool  `json:"is_visible_to_customers"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	actorID, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Actor not found in context")
		return
	}

	cmd := command.CreateItemCommand{
		ProductID:            req.ProductID,
		InitialStock:         req.InitialStock,
		MinimumThreshold:     req.MinimumThreshold,
		MaximumThreshold:     req.MaximumThreshold,
		IsActive:             true,
		IsVisibleToCustomers: true,
		PerformedBy:          &actorID,
	}
	if req.IsActive != nil {
		cmd.IsActive = *req.IsActive
	}
	if req.IsVisibleToCustomers != nil {
		cmd.IsVisibleToCustomers = *req.IsVisibleToCustomers
	}

	item, err := h.createItemHandler.Handle(r.Context(), cmd)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create inventory item")
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Inventory item created successfully",
		Data:    item,
	})
}

// GetItem handles GET /api/ledger/items/{id}
func (h *LedgerHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	item, err := h.getItemHandler.Handle(r.Context(), query.GetItemQuery{ID: vars["id"]})
	if err != nil {
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    item,
	})
}

// GetItemByProduct handles GET /api/ledger/items/product/{product_id}
func (h *LedgerHandler) GetItemByProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	item, err := h.getItemHandler.Handle(r.Context(), query.GetItemQuery{ProductID: vars["product_id"]})
	if err != nil {
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    item,
	})
}

// ListItems handles GET /api/ledger/items
func (h *LedgerHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	lowStockOnly, _ := strconv.ParseBool(r.URL.Query().Get("low_stock"))

	items, err := h.listItemsHandler.Handle(r.Context(), query.ListItemsQuery{
		Limit:        limit,
		Offset:       offset,
		LowStockOnly: lowStockOnly,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list inventory items")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list inventory items",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    items,
	})
}

// CheckAvailability handles GET /api/ledger/availability/{product_id}
func (h *LedgerHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid quantity",
			})
			return
		}
		quantity = parsed
	}

	result, err := h.checkAvailabilityHandler.Handle(r.Context(), query.CheckAvailabilityQuery{
		ProductID: vars["product_id"],
		Quantity:  quantity,
	})
	if err != nil {
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// RecordMovement handles POST /api/ledger/movements
func (h *LedgerHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID                string  `json:"item_id"`
		MovementType          string  `json:"movement_type"`
		QuantityChange        int     `json:"quantity_change"`
		ReservedStockChange   int     `json:"reserved_stock_change"`
		ExpectedPreviousStock *int    `json:"expected_previous_stock"`
		Reason                string  `json:"reason"`
		ReferenceOrderID      *string `json:"reference_order_id"`
		IdempotencyKey        *string `json:"idempotency_key"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	// The acting user always comes from the validated token, never from the
	// request body.
	actorID, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Actor not found in context")
		return
	}

	movement, err := h.recordMovementHandler.Handle(r.Context(), command.RecordMovementCommand{
		ItemID:                req.ItemID,
		MovementType:          req.MovementType,
		QuantityChange:        req.QuantityChange,
		ReservedStockChange:   req.ReservedStockChange,
		ExpectedPreviousStock: req.ExpectedPreviousStock,
		Reason:                req.Reason,
		PerformedBy:           &actorID,
		ReferenceOrderID:      req.ReferenceOrderID,
		IdempotencyKey:        req.IdempotencyKey,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("item_id", req.ItemID).Msg("Failed to record stock movement")
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Stock movement recorded successfully",
		Data:    movement,
	})
}

// UpdateStock handles PATCH /api/ledger/items/{id}/stock
func (h *LedgerHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		NewCurrentStock  *int    `json:"new_current_stock"`
		NewReservedStock *int    `json:"new_reserved_stock"`
		MovementType     string  `json:"movement_type"`
		Reason           string  `json:"reason"`
		ReferenceOrderID *string `json:"reference_order_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	if req.NewCurrentStock == nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "new_current_stock is required",
		})
		return
	}

	actorID, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Actor not found in context")
		return
	}

	item, err := h.updateStockHandler.Handle(r.Context(), command.UpdateStockCommand{
		ItemID:           vars["id"],
		NewCurrentStock:  *req.NewCurrentStock,
		NewReservedStock: req.NewReservedStock,
		MovementType:     req.MovementType,
		Reason:           req.Reason,
		PerformedBy:      &actorID,
		ReferenceOrderID: req.ReferenceOrderID,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("item_id", vars["id"]).Msg("Failed to update stock")
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock updated successfully",
		Data:    item,
	})
}

// ProcessBatch handles POST /api/ledger/movements/batch
func (h *LedgerHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BatchID   *string `json:"batch_id"`
		Movements []struct {
			ItemID                string  `json:"item_id"`
			MovementType          string  `json:"movement_type"`
			QuantityChange        int     `json:"quantity_change"`
			ReservedStockChange   int     `json:"reserved_stock_change"`
			ExpectedPreviousStock *int    `json:"expected_previous_stock"`
			Reason                string  `json:"reason"`
			ReferenceOrderID      *string `json:"reference_order_id"`
			IdempotencyKey        *string `json:"idempotency_key"`
		} `json:"movements"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	actorID, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Actor not found in context")
		return
	}

	cmd := command.ProcessBatchCommand{
		BatchID:     req.BatchID,
		PerformedBy: &actorID,
	}
	for _, m := range req.Movements {
		cmd.Movements = append(cmd.Movements, command.BatchMovementRequest{
			ItemID:                m.ItemID,
			MovementType:          m.MovementType,
			QuantityChange:        m.QuantityChange,
			ReservedStockChange:   m.ReservedStockChange,
			ExpectedPreviousStock: m.ExpectedPreviousStock,
			Reason:                m.Reason,
			ReferenceOrderID:      m.ReferenceOrderID,
			IdempotencyKey:        m.IdempotencyKey,
		})
	}

	result, err := h.processBatchHandler.Handle(r.Context(), cmd)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to process movement batch")
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	type batchFailure struct {
		Index  int    `json:"index"`
		ItemID string `json:"item_id"`
		Error  string `json:"error"`
	}
	failed := make([]batchFailure, 0, len(result.Failed))
	for _, f := range result.Failed {
		failed = append(failed, batchFailure{
			Index:  f.Index,
			ItemID: f.ItemID,
			Error:  f.Err.Error(),
		})
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Batch processed",
		Data: map[string]interface{}{
			"batch_id":        result.BatchID,
			"total_processed": result.TotalProcessed,
			"succeeded":       result.Succeeded,
			"failed":          failed,
		},
	})
}

// MovementHistory handles GET /api/ledger/items/{id}/movements
func (h *LedgerHandler) MovementHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	includeSystem, _ := strconv.ParseBool(r.URL.Query().Get("include_system"))

	actorID, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Actor not found in context")
		return
	}

	page, err := h.movementHistoryHandler.Handle(r.Context(), query.MovementHistoryQuery{
		ItemID:                 vars["id"],
		Limit:                  limit,
		Offset:                 offset,
		IncludeSystemMovements: includeSystem,
		RequestedBy:            &actorID,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("item_id", vars["id"]).Msg("Failed to get movement history")
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    toMovementPageResponse(page),
	})
}

// SearchMovements handles GET /api/ledger/movements
func (h *LedgerHandler) SearchMovements(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	limit, _ := strconv.Atoi(params.Get("limit"))
	offset, _ := strconv.Atoi(params.Get("offset"))

	q := query.MovementsByFilterQuery{
		Limit:  limit,
		Offset: offset,
	}
	if raw := params.Get("movement_type"); raw != "" {
		q.MovementType = &raw
	}
	if raw := params.Get("performed_by"); raw != "" {
		q.PerformedBy = &raw
	}

	startDate, err := parseTimeParam(params.Get("start_date"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid start_date, expected RFC3339",
		})
		return
	}
	endDate, err := parseTimeParam(params.Get("end_date"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid end_date, expected RFC3339",
		})
		return
	}
	q.StartDate = startDate
	q.EndDate = endDate

	actorID, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Actor not found in context")
		return
	}
	q.RequestedBy = &actorID

	page, err := h.searchMovementsHandler.Handle(r.Context(), q)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to search movements")
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    toMovementPageResponse(page),
	})
}

// BatchMovements handles GET /api/ledger/movements/batch/{batch_id}
func (h *LedgerHandler) BatchMovements(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	actorID, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Actor not found in context")
		return
	}

	page, err := h.batchMovementsHandler.Handle(r.Context(), query.BatchMovementsQuery{
		BatchID:     vars["batch_id"],
		RequestedBy: &actorID,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("batch_id", vars["batch_id"]).Msg("Failed to get batch movements")
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    toMovementPageResponse(page),
	})
}

// MovementAnalytics handles GET /api/ledger/movements/analytics
func (h *LedgerHandler) MovementAnalytics(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := query.MovementAnalyticsQuery{
		GroupBy: params.Get("group_by"),
	}
	startDate, err := parseTimeParam(params.Get("start_date"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid start_date, expected RFC3339",
		})
		return
	}
	endDate, err := parseTimeParam(params.Get("end_date"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid end_date, expected RFC3339",
		})
		return
	}
	if startDate != nil {
		q.StartDate = *startDate
	}
	if endDate != nil {
		q.EndDate = *endDate
	}

	actorID, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Actor not found in context")
		return
	}
	q.RequestedBy = &actorID

	result, err := h.analyticsHandler.Handle(r.Context(), q)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to aggregate movements")
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// InvalidatePermissions handles POST /api/ledger/permissions/{actor_id}/invalidate
func (h *LedgerHandler) InvalidatePermissions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.gate.Invalidate(r.Context(), vars["actor_id"]); err != nil {
		logger.Error(r.Context()).Err(err).Str("actor_id", vars["actor_id"]).Msg("Failed to invalidate cached permissions")
		respondJSON(w, statusFromError(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Cached permissions invalidated",
	})
}

// parseTimeParam parses an optional RFC3339 query parameter
func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// RegisterRoutes registers all ledger routes
func (h *LedgerHandler) RegisterRoutes(router *mux.Router) {
	// Item balance routes
	router.HandleFunc("/api/ledger/items", h.ListItems).Methods("GET")
	router.HandleFunc("/api/ledger/items", AuthMiddleware(h.CreateItem)).Methods("POST")
	router.HandleFunc("/api/ledger/items/product/{product_id}", h.GetItemByProduct).Methods("GET")
	router.HandleFunc("/api/ledger/items/{id}", h.GetItem).Methods("GET")
	router.HandleFunc("/api/ledger/availability/{product_id}", h.CheckAvailability).Methods("GET")

	// Movement routes
	router.HandleFunc("/api/ledger/movements", AuthMiddleware(h.SearchMovements)).Methods("GET")
	router.HandleFunc("/api/ledger/movements", AuthMiddleware(h.RecordMovement)).Methods("POST")
	router.HandleFunc("/api/ledger/movements/analytics", AuthMiddleware(h.MovementAnalytics)).Methods("GET")
	router.HandleFunc("/api/ledger/movements/batch", AuthMiddleware(h.ProcessBatch)).Methods("POST")
	router.HandleFunc("/api/ledger/movements/batch/{batch_id}", AuthMiddleware(h.BatchMovements)).Methods("GET")
	router.HandleFunc("/api/ledger/items/{id}/movements", AuthMiddleware(h.MovementHistory)).Methods("GET")
	router.HandleFunc("/api/ledger/items/{id}/stock", AuthMiddleware(h.UpdateStock)).Methods("PATCH")

	// Admin routes
	router.HandleFunc("/api/ledger/permissions/{actor_id}/invalidate", AdminMiddleware(h.InvalidatePermissions)).Methods("POST")
}

// RegisterHealthCheck registers health check endpoint
func (h *LedgerHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Ledger service is healthy",
		})
	}).Methods("GET")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
