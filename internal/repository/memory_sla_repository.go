package repository

import (
	"context"
	"sync"
	"time"

	"github.com/sladesk-io/sladesk/internal/models"
)

// MemorySLARepository is an in-memory implementation of SLARepository
type MemorySLARepository struct {
	slas         map[uint]*models.SLADefinition
	workingHours map[models.Scope][]models.WorkingHours
	holidays     map[models.Scope][]models.Holiday
	mu           sync.RWMutex
	nextSLAID    uint
	nextTargetID uint
	nextHolID    uint
}

// NewMemorySLARepository creates a new in-memory SLA repository
func NewMemorySLARepository() *MemorySLARepository {
	return &MemorySLARepository{
		slas:         make(map[uint]*models.SLADefinition),
		workingHours: make(map[models.Scope][]models.WorkingHours),
		holidays:     make(map[models.Scope][]models.Holiday),
		nextSLAID:    1,
		nextTargetID: 1,
		nextHolID:    1,
	}
}

// CreateSLA stores a definition and assigns identifiers to it and its targets.
func (r *MemorySLARepository) CreateSLA(ctx context.Context, sla *models.SLADefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sla.ID = r.nextSLAID
	r.nextSLAID++
	sla.CreatedAt = time.Now()
	sla.UpdatedAt = sla.CreatedAt

	for i := range sla.Targets {
		if sla.Targets[i].ID == 0 {
			sla.Targets[i].ID = r.nextTargetID
			r.nextTargetID++
		}
		sla.Targets[i].SLAID = sla.ID
	}

	stored := cloneSLA(sla)
	r.slas[sla.ID] = stored
	return nil
}

// GetSLA retrieves a definition by ID.
func (r *MemorySLARepository) GetSLA(ctx context.Context, id uint) (*models.SLADefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sla, exists := r.slas[id]
	if !exists {
		return nil, ErrNotFound
	}
	return cloneSLA(sla), nil
}

// GetActiveSLAs returns all active definitions for the scope.
func (r *MemorySLARepository) GetActiveSLAs(ctx context.Context, scope models.Scope) ([]models.SLADefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.SLADefinition
	for _, sla := range r.slas {
		if sla.IsActive && sla.Scope == scope {
			out = append(out, *cloneSLA(sla))
		}
	}
	return out, nil
}

// UpdateSLA replaces a stored definition.
func (r *MemorySLARepository) UpdateSLA(ctx context.Context, sla *models.SLADefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slas[sla.ID]; !exists {
		return ErrNotFound
	}
	sla.UpdatedAt = time.Now()
	r.slas[sla.ID] = cloneSLA(sla)
	return nil
}

// FindTarget resolves the target for a priority on the SLA.
func (r *MemorySLARepository) FindTarget(ctx context.Context, slaID uint, priority string) (*models.SLATarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sla, exists := r.slas[slaID]
	if !exists {
		return nil, ErrNotFound
	}
	for i := range sla.Targets {
		if sla.Targets[i].Priority == priority {
			t := cloneTarget(&sla.Targets[i])
			return t, nil
		}
	}
	return nil, ErrNotFound
}

// GetTarget retrieves a target row by ID.
func (r *MemorySLARepository) GetTarget(ctx context.Context, id uint) (*models.SLATarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sla := range r.slas {
		for i := range sla.Targets {
			if sla.Targets[i].ID == id {
				return cloneTarget(&sla.Targets[i]), nil
			}
		}
	}
	return nil, ErrNotFound
}

// ReplaceWorkingHours swaps the full weekly calendar for a scope.
func (r *MemorySLARepository) ReplaceWorkingHours(ctx context.Context, scope models.Scope, rows []models.WorkingHours) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]models.WorkingHours, len(rows))
	copy(stored, rows)
	for i := range stored {
		stored[i].Scope = scope
	}
	r.workingHours[scope] = stored
	return nil
}

// GetWorkingHours returns the weekly calendar rows for a scope.
func (r *MemorySLARepository) GetWorkingHours(ctx context.Context, scope models.Scope) ([]models.WorkingHours, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.workingHours[scope]
	out := make([]models.WorkingHours, len(rows))
	copy(out, rows)
	return out, nil
}

// AddHoliday stores a holiday for its scope.
func (r *MemorySLARepository) AddHoliday(ctx context.Context, holiday *models.Holiday) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	holiday.ID = r.nextHolID
	r.nextHolID++
	r.holidays[holiday.Scope] = append(r.holidays[holiday.Scope], *holiday)
	return nil
}

// GetHolidays returns the holidays for a scope.
func (r *MemorySLARepository) GetHolidays(ctx context.Context, scope models.Scope) ([]models.Holiday, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.holidays[scope]
	out := make([]models.Holiday, len(rows))
	copy(out, rows)
	return out, nil
}

func cloneSLA(sla *models.SLADefinition) *models.SLADefinition {
	out := *sla
	out.Targets = make([]models.SLATarget, len(sla.Targets))
	for i := range sla.Targets {
		out.Targets[i] = *cloneTarget(&sla.Targets[i])
	}
	return &out
}

func cloneTarget(t *models.SLATarget) *models.SLATarget {
	out := *t
	out.Reminders = append([]models.SLAReminder(nil), t.Reminders...)
	out.EscalationLevels = append([]models.SLAEscalationLevel(nil), t.EscalationLevels...)
	return &out
}
