package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// MemoryStore is an in-process implementation of the ledger stores. It backs
// unit tests and local development without Postgres while keeping the same
// contract: copies in, copies out, compare-and-set balance writes, row
// validation on movement reads.
type MemoryStore struct {
	mu        sync.Mutex
	items     map[string]domain.InventoryItem
	movements map[string]domain.StockMovement
	order     []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:     make(map[string]domain.InventoryItem),
		movements: make(map[string]domain.StockMovement),
	}
}

// Items returns the balance-store view.
func (s *MemoryStore) Items() domain.ItemRepository {
	return &memoryItemRepo{store: s, locking: true}
}

// Movements returns the movement-log view.
func (s *MemoryStore) Movements() domain.MovementRepository {
	return &memoryMovementRepo{store: s, locking: true}
}

// Atomic returns a transaction runner over this store.
func (s *MemoryStore) Atomic() domain.Atomic {
	return &memoryAtomic{store: s}
}

// SeedMovement inserts a movement record directly, bypassing validation.
// Tests use it to plant fixtures, including rows that no longer decode.
func (s *MemoryStore) SeedMovement(m domain.StockMovement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	s.movements[m.ID] = m
	s.order = append(s.order, m.ID)
}

func (s *MemoryStore) snapshotLocked() (map[string]domain.InventoryItem, map[string]domain.StockMovement, []string) {
	items := make(map[string]domain.InventoryItem, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	movements := make(map[string]domain.StockMovement, len(s.movements))
	for k, v := range s.movements {
		movements[k] = v
	}
	order := append([]string(nil), s.order...)
	return items, movements, order
}

type memoryAtomic struct {
	store *MemoryStore
}

// RunInTx serializes commits and restores the pre-transaction state when fn
// fails, so a rejected compare-and-set never leaves a stray movement behind.
func (a *memoryAtomic) RunInTx(ctx context.Context, fn func(items domain.ItemRepository, movements domain.MovementRepository) error) error {
	if err := ctxErr(ctx, "begin tx"); err != nil {
		return err
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	items, movements, order := a.store.snapshotLocked()
	err := fn(
		&memoryItemRepo{store: a.store},
		&memoryMovementRepo{store: a.store},
	)
	if err != nil {
		a.store.items = items
		a.store.movements = movements
		a.store.order = order
		return err
	}
	return nil
}

type memoryItemRepo struct {
	store   *MemoryStore
	locking bool
}

func (r *memoryItemRepo) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memoryItemRepo) Create(ctx context.Context, item *domain.InventoryItem) error {
	if err := ctxErr(ctx, "create item"); err != nil {
		return err
	}
	defer r.lock()()
	for _, existing := range r.store.items {
		if existing.ProductID == item.ProductID {
			return domain.ErrItemExists
		}
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if item.LastStockUpdate.IsZero() {
		item.LastStockUpdate = now
	}
	item.AvailableStock = item.CurrentStock - item.ReservedStock
	item.CreatedAt = now
	item.UpdatedAt = now
	r.store.items[item.ID] = *item
	return nil
}

func (r *memoryItemRepo) FindByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	if err := ctxErr(ctx, "find item"); err != nil {
		return nil, err
	}
	defer r.lock()()
	item, ok := r.store.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (r *memoryItemRepo) FindByProductID(ctx context.Context, productID string) (*domain.InventoryItem, error) {
	if err := ctxErr(ctx, "find item by product"); err != nil {
		return nil, err
	}
	defer r.lock()()
	for _, item := range r.store.items {
		if item.ProductID == productID {
			found := item
			return &found, nil
		}
	}
	return nil, domain.ErrItemNotFound
}

func (r *memoryItemRepo) FindAll(ctx context.Context, limit, offset int) ([]domain.InventoryItem, error) {
	if err := ctxErr(ctx, "list items"); err != nil {
		return nil, err
	}
	defer r.lock()()
	all := make([]domain.InventoryItem, 0, len(r.store.items))
	for _, item := range r.store.items {
		all = append(all, item)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pageItems(all, limit, offset), nil
}

func (r *memoryItemRepo) FindLowStock(ctx context.Context, limit, offset int) ([]domain.InventoryItem, error) {
	if err := ctxErr(ctx, "list low stock items"); err != nil {
		return nil, err
	}
	defer r.lock()()
	low := make([]domain.InventoryItem, 0)
	for _, item := range r.store.items {
		if item.IsActive && item.AvailableStock < item.MinimumThreshold {
			low = append(low, item)
		}
	}
	sort.Slice(low, func(i, j int) bool { return low[i].AvailableStock < low[j].AvailableStock })
	return pageItems(low, limit, offset), nil
}

func (r *memoryItemRepo) Update(ctx context.Context, item *domain.InventoryItem) error {
	if err := ctxErr(ctx, "update item"); err != nil {
		return err
	}
	defer r.lock()()
	if _, ok := r.store.items[item.ID]; !ok {
		return domain.ErrItemNotFound
	}
	item.AvailableStock = item.CurrentStock - item.ReservedStock
	item.UpdatedAt = time.Now().UTC()
	r.store.items[item.ID] = *item
	return nil
}

func (r *memoryItemRepo) ApplyBalanceChange(ctx context.Context, change domain.BalanceChange) error {
	if err := ctxErr(ctx, "apply balance change"); err != nil {
		return err
	}
	defer r.lock()()
	item, ok := r.store.items[change.ItemID]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.CurrentStock != change.PreviousStock {
		return domain.ErrConcurrentModification
	}
	item.CurrentStock = change.NewStock
	item.ReservedStock = change.ReservedStock
	item.AvailableStock = change.NewStock - change.ReservedStock
	item.LastStockUpdate = change.UpdatedAt
	item.UpdatedAt = change.UpdatedAt
	r.store.items[change.ItemID] = item
	return nil
}

func (r *memoryItemRepo) Delete(ctx context.Context, id string) error {
	if err := ctxErr(ctx, "delete item"); err != nil {
		return err
	}
	defer r.lock()()
	if _, ok := r.store.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.store.items, id)
	return nil
}

type memoryMovementRepo struct {
	store   *MemoryStore
	locking bool
}

func (r *memoryMovementRepo) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memoryMovementRepo) Create(ctx context.Context, movement *domain.StockMovement) error {
	if err := ctxErr(ctx, "create movement"); err != nil {
		return err
	}
	defer r.lock()()
	if movement.IdempotencyKey != nil {
		for _, existing := range r.store.movements {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *movement.IdempotencyKey {
				return &domain.DuplicateMovementError{
					IdempotencyKey: *movement.IdempotencyKey,
					ExistingID:     existing.ID,
				}
			}
		}
	}
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	movement.CreatedAt = time.Now().UTC()
	r.store.movements[movement.ID] = *movement
	r.store.order = append(r.store.order, movement.ID)
	return nil
}

func (r *memoryMovementRepo) FindByID(ctx context.Context, id string) (*domain.StockMovement, error) {
	if err := ctxErr(ctx, "find movement"); err != nil {
		return nil, err
	}
	defer r.lock()()
	movement, ok := r.store.movements[id]
	if !ok {
		return nil, domain.ErrMovementNotFound
	}
	return &movement, nil
}

func (r *memoryMovementRepo) FindByIdempotencyKey(ctx context.Context, key string) (*domain.StockMovement, error) {
	if err := ctxErr(ctx, "find movement by idempotency key"); err != nil {
		return nil, err
	}
	defer r.lock()()
	for _, movement := range r.store.movements {
		if movement.IdempotencyKey != nil && *movement.IdempotencyKey == key {
			found := movement
			return &found, nil
		}
	}
	return nil, domain.ErrMovementNotFound
}

func (r *memoryMovementRepo) FindByItem(ctx context.Context, itemID string, page domain.HistoryPage) (*domain.MovementPage, error) {
	if err := ctxErr(ctx, "find movements by item"); err != nil {
		return nil, err
	}
	defer r.lock()()
	return r.collect(func(m *domain.StockMovement) bool {
		if m.InventoryItemID != itemID {
			return false
		}
		if !page.IncludeSystemMovements && m.IsSystemMovement() {
			return false
		}
		return true
	}, false, page.Limit, page.Offset), nil
}

func (r *memoryMovementRepo) FindByFilter(ctx context.Context, filter domain.MovementFilter) (*domain.MovementPage, error) {
	if err := ctxErr(ctx, "find movements by filter"); err != nil {
		return nil, err
	}
	defer r.lock()()
	return r.collect(func(m *domain.StockMovement) bool {
		if filter.MovementType != nil && m.MovementType != *filter.MovementType {
			return false
		}
		if filter.PerformedBy != nil && (m.PerformedBy == nil || *m.PerformedBy != *filter.PerformedBy) {
			return false
		}
		if filter.StartDate != nil && m.PerformedAt.Before(*filter.StartDate) {
			return false
		}
		if filter.EndDate != nil && m.PerformedAt.After(*filter.EndDate) {
			return false
		}
		return true
	}, false, filter.Limit, filter.Offset), nil
}

func (r *memoryMovementRepo) FindByBatch(ctx context.Context, batchID string) (*domain.MovementPage, error) {
	if err := ctxErr(ctx, "find movements by batch"); err != nil {
		return nil, err
	}
	defer r.lock()()
	return r.collect(func(m *domain.StockMovement) bool {
		return m.BatchID != nil && *m.BatchID == batchID
	}, true, 0, 0), nil
}

func (r *memoryMovementRepo) FindInWindow(ctx context.Context, start, end time.Time) (*domain.MovementPage, error) {
	if err := ctxErr(ctx, "find movements in window"); err != nil {
		return nil, err
	}
	defer r.lock()()
	return r.collect(func(m *domain.StockMovement) bool {
		return !m.PerformedAt.Before(start) && !m.PerformedAt.After(end)
	}, true, 0, 0), nil
}

// collect filters, orders and pages movements the same way the database
// store does: the page window is cut first, then each row in the window is
// validated, so RowsScanned matches what a SQL cursor would have returned.
func (r *memoryMovementRepo) collect(match func(*domain.StockMovement) bool, ascending bool, limit, offset int) *domain.MovementPage {
	matched := make([]domain.StockMovement, 0)
	for _, id := range r.store.order {
		movement := r.store.movements[id]
		if match(&movement) {
			matched = append(matched, movement)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if ascending {
			return matched[i].PerformedAt.Before(matched[j].PerformedAt)
		}
		return matched[i].PerformedAt.After(matched[j].PerformedAt)
	})
	if offset > 0 {
		if offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[offset:]
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	page := &domain.MovementPage{Movements: []domain.StockMovement{}}
	for i := range matched {
		page.RowsScanned++
		if validateMovementRow(&matched[i]) != nil {
			continue
		}
		page.Movements = append(page.Movements, matched[i])
	}
	return page
}

func pageItems(items []domain.InventoryItem, limit, offset int) []domain.InventoryItem {
	if offset > 0 {
		if offset >= len(items) {
			return []domain.InventoryItem{}
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func ctxErr(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: op, Err: err}
	}
	return nil
}
