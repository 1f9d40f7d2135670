package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sladesk-io/sladesk/internal/models"
)

// MemoryViolationRepository is an in-memory implementation of
// ViolationRepository. The single mutex makes check-then-insert atomic, the
// same guarantee the SQL implementation gets from its unique index.
type MemoryViolationRepository struct {
	records []models.ViolationRecord
	mu      sync.Mutex
}

// NewMemoryViolationRepository creates a new in-memory violation repository
func NewMemoryViolationRepository() *MemoryViolationRepository {
	return &MemoryViolationRepository{}
}

// Exists reports whether an unresolved record occupies the key.
func (r *MemoryViolationRepository) Exists(ctx context.Context, key models.ViolationKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unresolvedIndex(key) >= 0, nil
}

// Record inserts the violation unless the key already holds an unresolved
// record. Returns true when this call created the row.
func (r *MemoryViolationRepository) Record(ctx context.Context, v *models.ViolationRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unresolvedIndex(v.Key()) >= 0 {
		return false, nil
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()
	r.records = append(r.records, *v)
	return true, nil
}

// Resolve marks the unresolved record at key as resolved.
func (r *MemoryViolationRepository) Resolve(ctx context.Context, key models.ViolationKey, actual time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.unresolvedIndex(key)
	if idx < 0 {
		return ErrNotFound
	}
	at := actual
	r.records[idx].IsResolved = true
	r.records[idx].ActualTime = &at
	return nil
}

// ListByItem returns all records for an item, resolved included.
func (r *MemoryViolationRepository) ListByItem(ctx context.Context, kind models.ItemKind, itemID uint) ([]models.ViolationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ViolationRecord
	for _, rec := range r.records {
		if rec.ItemKind == kind && rec.ItemID == itemID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryViolationRepository) unresolvedIndex(key models.ViolationKey) int {
	for i := range r.records {
		if !r.records[i].IsResolved && r.records[i].Key() == key {
			return i
		}
	}
	return -1
}
