package sla

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sladesk-io/sladesk/internal/config"
	"github.com/sladesk-io/sladesk/internal/models"
	"github.com/sladesk-io/sladesk/internal/repository"
)

// DefaultPriority is tried when an SLA has no target row for an item's
// priority.
const DefaultPriority = "medium"

// TrackerService owns the per-item SLA lifecycle: assignment, pause and
// resume, and completion marks. Callers invoke these explicitly from their
// ticket workflows; the service never watches for state changes on its own.
type TrackerService struct {
	slas       repository.SLARepository
	items      repository.ItemRepository
	trackers   repository.TrackerRepository
	violations repository.ViolationRepository
	cfg        *config.SLAConfig
	logger     *log.Logger
	now        func() time.Time
}

// TrackerOption configures a TrackerService.
type TrackerOption func(*TrackerService)

// WithTrackerLogger sets the service logger.
func WithTrackerLogger(logger *log.Logger) TrackerOption {
	return func(s *TrackerService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTrackerClock overrides the time source.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(s *TrackerService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTrackerService wires a tracker service over its repositories.
func NewTrackerService(
	slas repository.SLARepository,
	items repository.ItemRepository,
	trackers repository.TrackerRepository,
	violations repository.ViolationRepository,
	cfg *config.SLAConfig,
	opts ...TrackerOption,
) *TrackerService {
	s := &TrackerService{
		slas:       slas,
		items:      items,
		trackers:   trackers,
		violations: violations,
		cfg:        cfg,
		logger:     log.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalendarFor loads the working calendar for a scope.
func (s *TrackerService) CalendarFor(ctx context.Context, scope models.Scope) (*Calendar, error) {
	rows, err := s.slas.GetWorkingHours(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load working hours: %w", err)
	}
	holidays, err := s.slas.GetHolidays(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	includeHolidays := true
	if s.cfg != nil {
		includeHolidays = s.cfg.IncludeHolidays
	}
	return NewCalendar(rows, holidays, includeHolidays, s.logger), nil
}

// ResolveTarget finds the SLA target for an item, falling back to the
// default priority when the item's own priority has no target row.
func (s *TrackerService) ResolveTarget(ctx context.Context, item *models.Item) (*models.SLATarget, error) {
	if !item.HasSLA() {
		return nil, fmt.Errorf("item %s/%d has no SLA assigned", item.Kind, item.ID)
	}
	sla, err := s.slas.GetSLA(ctx, *item.SLAID)
	if err != nil {
		return nil, fmt.Errorf("failed to load SLA %d: %w", *item.SLAID, err)
	}
	if !sla.IsActive {
		return nil, fmt.Errorf("SLA %d (%s) is inactive", sla.ID, sla.Name)
	}

	target, err := s.slas.FindTarget(ctx, sla.ID, item.Priority)
	if errors.Is(err, repository.ErrNotFound) && item.Priority != DefaultPriority {
		s.logger.Printf("No SLA target for priority %q on SLA %d, trying %q", item.Priority, sla.ID, DefaultPriority)
		target, err = s.slas.FindTarget(ctx, sla.ID, DefaultPriority)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target for priority %q on SLA %d: %w", item.Priority, sla.ID, err)
	}
	if target.OperationalHours == "" {
		target.OperationalHours = sla.OperationalHours
	}
	return target, nil
}

// Assign creates the SLA tracker for an item, computing raw due instants
// from the item's creation time. Assign is idempotent: a second call returns
// the existing tracker unchanged.
func (s *TrackerService) Assign(ctx context.Context, item *models.Item) (*models.SLATracker, error) {
	if existing, err := s.trackers.GetByItem(ctx, item.Kind, item.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing tracker: %w", err)
	}

	target, err := s.ResolveTarget(ctx, item)
	if err != nil {
		return nil, err
	}
	calendar, err := s.CalendarFor(ctx, item.Scope)
	if err != nil {
		return nil, err
	}
	calc := NewCalculator(calendar, s.logger)

	businessOnly := target.BusinessHoursOnly()
	start := item.CreatedAt
	if start.IsZero() {
		start = s.now()
	}

	tracker := &models.SLATracker{
		ItemKind: item.Kind,
		ItemID:   item.ID,
		TargetID: target.ID,
	}
	if target.HasDimension(models.DimensionFirstResponse) {
		tracker.FirstResponseDue = calc.DueDate(start, target.DimensionMinutes(models.DimensionFirstResponse), businessOnly)
	}
	if target.HasDimension(models.DimensionResolution) {
		tracker.ResolutionDue = calc.DueDate(start, target.DimensionMinutes(models.DimensionResolution), businessOnly)
	}

	if err := s.trackers.Create(ctx, tracker); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return s.trackers.GetByItem(ctx, item.Kind, item.ID)
		}
		return nil, fmt.Errorf("failed to create tracker: %w", err)
	}

	s.logger.Printf("SLA tracker created for %s %d (target %d, first response due %s, resolution due %s)",
		item.Kind, item.ID, target.ID,
		tracker.FirstResponseDue.Format(time.RFC3339), tracker.ResolutionDue.Format(time.RFC3339))
	return tracker, nil
}

// Pause stops SLA accrual for an item. Pausing an already-paused tracker is
// a no-op.
func (s *TrackerService) Pause(ctx context.Context, kind models.ItemKind, itemID uint, reason string) (*models.SLATracker, error) {
	tracker, err := s.mutate(ctx, kind, itemID, func(t *models.SLATracker) bool {
		if t.IsPaused {
			return false
		}
		now := s.now()
		t.IsPaused = true
		t.PausedAt = &now
		t.PauseReason = reason
		return true
	})
	if err != nil {
		return nil, err
	}
	if err := s.items.SetSLAPaused(ctx, kind, itemID, true); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to flag item paused: %w", err)
	}
	return tracker, nil
}

// Resume restarts SLA accrual. The elapsed pause is folded into the
// tracker's accumulated pause total; the raw due instants never move.
func (s *TrackerService) Resume(ctx context.Context, kind models.ItemKind, itemID uint) (*models.SLATracker, error) {
	tracker, err := s.mutate(ctx, kind, itemID, func(t *models.SLATracker) bool {
		if !t.IsPaused {
			return false
		}
		if t.PausedAt != nil {
			t.TotalPausedTime += s.now().Sub(*t.PausedAt)
		}
		t.IsPaused = false
		t.PausedAt = nil
		t.PauseReason = ""
		return true
	})
	if err != nil {
		return nil, err
	}
	if err := s.items.SetSLAPaused(ctx, kind, itemID, false); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to clear item pause flag: %w", err)
	}
	return tracker, nil
}

// MarkFirstResponse records the first agent response. An open first-response
// violation for the item is resolved with the actual response time.
func (s *TrackerService) MarkFirstResponse(ctx context.Context, kind models.ItemKind, itemID uint, at time.Time) (*models.SLATracker, error) {
	if at.IsZero() {
		at = s.now()
	}
	tracker, err := s.mutate(ctx, kind, itemID, func(t *models.SLATracker) bool {
		if t.FirstResponseCompleted != nil {
			return false
		}
		done := at
		t.FirstResponseCompleted = &done
		return true
	})
	if err != nil {
		return nil, err
	}
	if err := s.items.RecordFirstResponse(ctx, kind, itemID, at); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to record first response on item: %w", err)
	}
	s.resolveViolation(ctx, tracker, models.DimensionFirstResponse, at)
	return tracker, nil
}

// MarkResolved records resolution. An in-flight pause is folded in first so
// the stored pause total stays complete, and open violations for the item
// are resolved with the actual resolution time.
func (s *TrackerService) MarkResolved(ctx context.Context, kind models.ItemKind, itemID uint, at time.Time) (*models.SLATracker, error) {
	if at.IsZero() {
		at = s.now()
	}
	tracker, err := s.mutate(ctx, kind, itemID, func(t *models.SLATracker) bool {
		if t.ResolutionCompleted != nil {
			return false
		}
		if t.IsPaused {
			if t.PausedAt != nil {
				t.TotalPausedTime += at.Sub(*t.PausedAt)
			}
			t.IsPaused = false
			t.PausedAt = nil
			t.PauseReason = ""
		}
		done := at
		t.ResolutionCompleted = &done
		return true
	})
	if err != nil {
		return nil, err
	}
	if err := s.items.RecordResolved(ctx, kind, itemID, at); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to record resolution on item: %w", err)
	}
	s.resolveViolation(ctx, tracker, models.DimensionResolution, at)
	return tracker, nil
}

// Status classifies every tracked dimension of an item's tracker.
func (s *TrackerService) Status(ctx context.Context, kind models.ItemKind, itemID uint) (map[models.Dimension]models.SLAStatus, error) {
	tracker, err := s.trackers.GetByItem(ctx, kind, itemID)
	if err != nil {
		return nil, err
	}
	warn := 30 * time.Minute
	if s.cfg != nil && s.cfg.WarnWindow > 0 {
		warn = s.cfg.WarnWindow
	}
	now := s.now()
	out := make(map[models.Dimension]models.SLAStatus, 2)
	if !tracker.FirstResponseDue.IsZero() {
		out[models.DimensionFirstResponse] = tracker.Classify(models.DimensionFirstResponse, now, warn)
	}
	if !tracker.ResolutionDue.IsZero() {
		out[models.DimensionResolution] = tracker.Classify(models.DimensionResolution, now, warn)
	}
	return out, nil
}

// mutate applies fn to the current tracker under compare-and-swap, retrying
// once on a lost race. fn returns false to skip the write (no-op mutations).
func (s *TrackerService) mutate(ctx context.Context, kind models.ItemKind, itemID uint, fn func(*models.SLATracker) bool) (*models.SLATracker, error) {
	for attempt := 0; attempt < 2; attempt++ {
		tracker, err := s.trackers.GetByItem(ctx, kind, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tracker for %s %d: %w", kind, itemID, err)
		}
		if !fn(tracker) {
			return tracker, nil
		}
		err = s.trackers.Update(ctx, tracker)
		if err == nil {
			return tracker, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to update tracker for %s %d: %w", kind, itemID, err)
		}
	}
	return nil, fmt.Errorf("failed to update tracker for %s %d: %w", kind, itemID, repository.ErrVersionConflict)
}

func (s *TrackerService) resolveViolation(ctx context.Context, tracker *models.SLATracker, dim models.Dimension, at time.Time) {
	key := models.ViolationKey{
		ItemKind:  tracker.ItemKind,
		ItemID:    tracker.ItemID,
		TargetID:  tracker.TargetID,
		Dimension: dim,
	}
	if err := s.violations.Resolve(ctx, key, at); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Printf("Warning: failed to resolve %s violation for %s %d: %v", dim, tracker.ItemKind, tracker.ItemID, err)
	}
}
