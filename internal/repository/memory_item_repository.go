package repository

import (
	"context"
	"sync"
	"time"

	"github.com/sladesk-io/sladesk/internal/models"
)

type itemKey struct {
	kind models.ItemKind
	id   uint
}

// MemoryItemRepository is an in-memory implementation of ItemRepository,
// used in tests and as the embedded item source.
type MemoryItemRepository struct {
	items map[itemKey]*models.Item
	mu    sync.RWMutex
}

// NewMemoryItemRepository creates a new in-memory item repository
func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{items: make(map[itemKey]*models.Item)}
}

// Put stores or replaces an item.
func (r *MemoryItemRepository) Put(item *models.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *item
	r.items[itemKey{item.Kind, item.ID}] = &stored
}

// ActiveItems returns in-flight items of the kind with an SLA assigned.
func (r *MemoryItemRepository) ActiveItems(ctx context.Context, scope models.Scope, kind models.ItemKind) ([]models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := models.ActiveTicketStatuses
	if kind == models.KindTask {
		active = models.ActiveTaskStatuses
	}

	var out []models.Item
	for _, item := range r.items {
		if item.Kind != kind || item.Scope != scope || !item.HasSLA() {
			continue
		}
		for _, status := range active {
			if item.Status == status {
				out = append(out, *item)
				break
			}
		}
	}
	return out, nil
}

// GetItem retrieves one item.
func (r *MemoryItemRepository) GetItem(ctx context.Context, kind models.ItemKind, id uint) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[itemKey{kind, id}]
	if !exists {
		return nil, ErrNotFound
	}
	out := *item
	return &out, nil
}

// RecordFirstResponse writes the first-response timestamp if unset.
func (r *MemoryItemRepository) RecordFirstResponse(ctx context.Context, kind models.ItemKind, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[itemKey{kind, id}]
	if !exists {
		return ErrNotFound
	}
	if item.FirstResponseAt == nil {
		t := at
		item.FirstResponseAt = &t
	}
	return nil
}

// RecordResolved writes the resolution timestamp and terminal status.
func (r *MemoryItemRepository) RecordResolved(ctx context.Context, kind models.ItemKind, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[itemKey{kind, id}]
	if !exists {
		return ErrNotFound
	}
	if item.ResolvedAt == nil {
		t := at
		item.ResolvedAt = &t
	}
	if kind == models.KindTask {
		item.Status = "completed"
	} else {
		item.Status = "resolved"
	}
	return nil
}

// SetSLAPaused flips the item's pause flag.
func (r *MemoryItemRepository) SetSLAPaused(ctx context.Context, kind models.ItemKind, id uint, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[itemKey{kind, id}]
	if !exists {
		return ErrNotFound
	}
	item.IsSLAPaused = paused
	return nil
}
