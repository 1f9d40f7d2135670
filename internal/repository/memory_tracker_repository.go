package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sladesk-io/sladesk/internal/models"
)

// MemoryTrackerRepository is an in-memory implementation of TrackerRepository.
type MemoryTrackerRepository struct {
	trackers map[itemKey]*models.SLATracker
	mu       sync.Mutex
}

// NewMemoryTrackerRepository creates a new in-memory tracker repository
func NewMemoryTrackerRepository() *MemoryTrackerRepository {
	return &MemoryTrackerRepository{trackers: make(map[itemKey]*models.SLATracker)}
}

// Create stores a tracker; one tracker may exist per item.
func (r *MemoryTrackerRepository) Create(ctx context.Context, tracker *models.SLATracker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := itemKey{tracker.ItemKind, tracker.ItemID}
	if _, exists := r.trackers[key]; exists {
		return ErrAlreadyExists
	}
	if tracker.ID == uuid.Nil {
		tracker.ID = uuid.New()
	}
	tracker.Version = 1
	tracker.CreatedAt = time.Now()
	tracker.UpdatedAt = tracker.CreatedAt

	stored := *tracker
	r.trackers[key] = &stored
	return nil
}

// GetByItem retrieves the tracker for an item.
func (r *MemoryTrackerRepository) GetByItem(ctx context.Context, kind models.ItemKind, itemID uint) (*models.SLATracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tracker, exists := r.trackers[itemKey{kind, itemID}]
	if !exists {
		return nil, ErrNotFound
	}
	out := *tracker
	return &out, nil
}

// Update applies a compare-and-swap write keyed on the tracker version.
// The caller's copy gets the incremented version on success.
func (r *MemoryTrackerRepository) Update(ctx context.Context, tracker *models.SLATracker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := itemKey{tracker.ItemKind, tracker.ItemID}
	current, exists := r.trackers[key]
	if !exists {
		return ErrNotFound
	}
	if current.Version != tracker.Version {
		return ErrVersionConflict
	}

	tracker.Version++
	tracker.UpdatedAt = time.Now()
	stored := *tracker
	r.trackers[key] = &stored
	return nil
}
