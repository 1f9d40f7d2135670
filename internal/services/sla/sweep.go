package sla

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sladesk-io/sladesk/internal/config"
	"github.com/sladesk-io/sladesk/internal/models"
	"github.com/sladesk-io/sladesk/internal/notifications"
	"github.com/sladesk-io/sladesk/internal/repository"
)

// Summary is the aggregate result of one sweep run.
type Summary struct {
	Monitored            int           `json:"monitored"`
	PausedSkipped        int           `json:"paused_skipped"`
	Violations           int           `json:"violations"`
	Reminders            int           `json:"reminders"`
	Escalations          int           `json:"escalations"`
	FirstResponseNotices int           `json:"first_response_notices"`
	Errors               int           `json:"errors"`
	DryRun               bool          `json:"dry_run"`
	Skipped              bool          `json:"skipped"`
	Duration             time.Duration `json:"duration"`
}

// Sweeper is the periodic compliance evaluator. Each run examines every
// in-flight item with an assigned SLA, fires window-gated reminders, and
// fires breach escalations exactly once per (item, target, dimension)
// through the violation ledger.
type Sweeper struct {
	slas       repository.SLARepository
	items      repository.ItemRepository
	trackers   repository.TrackerRepository
	violations repository.ViolationRepository
	tracker    *TrackerService
	dispatcher notifications.Dispatcher
	lock       SweepLock
	cfg        *config.SLAConfig
	scopes     []models.Scope
	logger     *log.Logger
	now        func() time.Time
}

// SweepOption configures a Sweeper.
type SweepOption func(*Sweeper)

// WithSweepLogger sets the sweep logger.
func WithSweepLogger(logger *log.Logger) SweepOption {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSweepClock overrides the time source.
func WithSweepClock(now func() time.Time) SweepOption {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepLock sets the cross-process lock; defaults to NoopLock.
func WithSweepLock(lock SweepLock) SweepOption {
	return func(s *Sweeper) {
		if lock != nil {
			s.lock = lock
		}
	}
}

// WithSweepScopes sets the scopes a run covers; defaults to the single
// default scope.
func WithSweepScopes(scopes ...models.Scope) SweepOption {
	return func(s *Sweeper) {
		if len(scopes) > 0 {
			s.scopes = scopes
		}
	}
}

// NewSweeper wires a sweeper over its collaborators.
func NewSweeper(
	slas repository.SLARepository,
	items repository.ItemRepository,
	trackers repository.TrackerRepository,
	violations repository.ViolationRepository,
	tracker *TrackerService,
	dispatcher notifications.Dispatcher,
	cfg *config.SLAConfig,
	opts ...SweepOption,
) *Sweeper {
	s := &Sweeper{
		slas:       slas,
		items:      items,
		trackers:   trackers,
		violations: violations,
		tracker:    tracker,
		dispatcher: dispatcher,
		lock:       NoopLock{},
		cfg:        cfg,
		scopes:     []models.Scope{models.DefaultScope},
		logger:     log.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one sweep. With dryRun true nothing is written or dispatched;
// the summary reports what would have fired. A run that loses the
// cross-process lock returns immediately with Skipped set.
func (s *Sweeper) Run(ctx context.Context, dryRun bool) (*Summary, error) {
	summary := &Summary{DryRun: dryRun}

	if s.cfg != nil && !s.cfg.Enabled {
		summary.Skipped = true
		return summary, nil
	}

	if !dryRun {
		ok, err := s.lock.Acquire(ctx)
		if err != nil {
			return summary, fmt.Errorf("failed to acquire sweep lock: %w", err)
		}
		if !ok {
			s.logger.Printf("Sweep skipped: another run holds the lock")
			summary.Skipped = true
			return summary, nil
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Printf("Warning: %v", err)
			}
		}()
	}

	started := s.now()
	for _, scope := range s.scopes {
		calendar, err := s.tracker.CalendarFor(ctx, scope)
		if err != nil {
			s.logger.Printf("Sweep error: failed to load calendar for scope %q: %v", scope, err)
			summary.Errors++
			continue
		}
		calc := NewCalculator(calendar, s.logger)

		for _, kind := range []models.ItemKind{models.KindTicket, models.KindTask} {
			items, err := s.items.ActiveItems(ctx, scope, kind)
			if err != nil {
				s.logger.Printf("Sweep error: failed to list active %ss for scope %q: %v", kind, scope, err)
				summary.Errors++
				continue
			}
			for i := range items {
				// Interruptible between items; each item's
				// notification+ledger pair stays whole.
				if ctx.Err() != nil {
					summary.Duration = s.now().Sub(started)
					return summary, ctx.Err()
				}
				s.sweepItem(ctx, &items[i], calc, dryRun, summary)
			}
		}
	}
	summary.Duration = s.now().Sub(started)

	if !dryRun {
		recordSweepMetrics(summary)
	}
	s.logger.Printf("Sweep complete (dry_run=%t): monitored=%d paused=%d violations=%d reminders=%d escalations=%d first_response_notices=%d errors=%d in %s",
		dryRun, summary.Monitored, summary.PausedSkipped, summary.Violations,
		summary.Reminders, summary.Escalations, summary.FirstResponseNotices,
		summary.Errors, summary.Duration)
	return summary, nil
}

// sweepItem evaluates one item. Any fault is logged with the item identity
// and counted; it never aborts the rest of the run.
func (s *Sweeper) sweepItem(ctx context.Context, item *models.Item, calc *Calculator, dryRun bool, summary *Summary) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("Sweep panic on %s %d: %v", item.Kind, item.ID, r)
			summary.Errors++
		}
	}()

	summary.Monitored++

	target, err := s.tracker.ResolveTarget(ctx, item)
	if err != nil {
		s.logger.Printf("Sweep error on %s %d: %v", item.Kind, item.ID, err)
		summary.Errors++
		return
	}

	tracker, err := s.loadOrCreateTracker(ctx, item, target, calc, dryRun)
	if err != nil {
		s.logger.Printf("Sweep error on %s %d: %v", item.Kind, item.ID, err)
		summary.Errors++
		return
	}

	if item.IsSLAPaused || tracker.IsPaused {
		summary.PausedSkipped++
		return
	}

	now := s.now()
	for _, dim := range []models.Dimension{models.DimensionFirstResponse, models.DimensionResolution} {
		if !target.HasDimension(dim) || tracker.RawDue(dim).IsZero() {
			continue
		}
		if tracker.CompletedAt(dim) != nil {
			continue
		}
		due := tracker.EffectiveDue(dim, now)

		s.fireReminders(ctx, item, target, dim, due, now, dryRun, summary)

		if !now.Before(due) {
			s.handleBreach(ctx, item, target, tracker, dim, due, now, dryRun, summary)
		}
	}
}

// loadOrCreateTracker returns the item's tracker, creating it when an item
// acquired its SLA without an explicit assignment call. Dry runs get a
// transient tracker instead of a write.
func (s *Sweeper) loadOrCreateTracker(ctx context.Context, item *models.Item, target *models.SLATarget, calc *Calculator, dryRun bool) (*models.SLATracker, error) {
	tracker, err := s.trackers.GetByItem(ctx, item.Kind, item.ID)
	if err == nil {
		return tracker, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load tracker: %w", err)
	}

	if dryRun {
		businessOnly := target.BusinessHoursOnly()
		t := &models.SLATracker{ItemKind: item.Kind, ItemID: item.ID, TargetID: target.ID}
		if target.HasDimension(models.DimensionFirstResponse) {
			t.FirstResponseDue = calc.DueDate(item.CreatedAt, target.DimensionMinutes(models.DimensionFirstResponse), businessOnly)
		}
		if target.HasDimension(models.DimensionResolution) {
			t.ResolutionDue = calc.DueDate(item.CreatedAt, target.DimensionMinutes(models.DimensionResolution), businessOnly)
		}
		if item.FirstResponseAt != nil {
			t.FirstResponseCompleted = item.FirstResponseAt
		}
		return t, nil
	}
	return s.tracker.Assign(ctx, item)
}

// fireReminders dispatches every active reminder whose window [due-lead, due)
// contains now. Reminders are window-gated, not deduplicated.
func (s *Sweeper) fireReminders(ctx context.Context, item *models.Item, target *models.SLATarget, dim models.Dimension, due, now time.Time, dryRun bool, summary *Summary) {
	for i := range target.Reminders {
		rem := &target.Reminders[i]
		if !rem.IsActive || rem.Dimension != dim {
			continue
		}
		windowStart := due.Add(-rem.Lead())
		if now.Before(windowStart) || !now.Before(due) {
			continue
		}

		if dryRun {
			summary.Reminders++
			continue
		}

		recipients := make([]string, 0, len(rem.NotifyGroups)+len(rem.NotifyAgents)+2)
		recipients = append(recipients, rem.NotifyGroups...)
		recipients = append(recipients, rem.NotifyAgents...)
		recipients = append(recipients, s.itemContacts(item)...)
		recipients = notifications.Dedupe(recipients)
		if len(recipients) == 0 {
			continue
		}
		template := notifications.TemplateReminder
		if item.Kind == models.KindTask {
			template = notifications.TemplateReminderTask
		}
		if err := s.dispatcher.Send(ctx, template, recipients, s.templateContext(item, dim, due, 0)); err != nil {
			s.logger.Printf("Sweep error on %s %d: reminder dispatch failed: %v", item.Kind, item.ID, err)
			summary.Errors++
			continue
		}
		summary.Reminders++
	}
}

// handleBreach records the violation once and, only when this run created
// the record, dispatches the eligible escalation levels plus the
// ticket-only first-response notice. The insert-if-absent ledger write
// happens before any dispatch so overlapping sweeps cannot double-notify.
func (s *Sweeper) handleBreach(ctx context.Context, item *models.Item, target *models.SLATarget, tracker *models.SLATracker, dim models.Dimension, due, now time.Time, dryRun bool, summary *Summary) {
	key := models.ViolationKey{ItemKind: item.Kind, ItemID: item.ID, TargetID: target.ID, Dimension: dim}
	levels := eligibleLevels(target, dim, due, now)
	wantsNotice := dim == models.DimensionFirstResponse &&
		item.Kind == models.KindTicket &&
		item.FirstResponseAt == nil &&
		!item.IsResolvedStatus()

	if dryRun {
		exists, err := s.violations.Exists(ctx, key)
		if err != nil {
			s.logger.Printf("Sweep error on %s %d: %v", item.Kind, item.ID, err)
			summary.Errors++
			return
		}
		if exists {
			return
		}
		summary.Violations++
		summary.Escalations += len(levels)
		if wantsNotice {
			summary.FirstResponseNotices++
		}
		return
	}

	created, err := s.violations.Record(ctx, &models.ViolationRecord{
		ItemKind:   item.Kind,
		ItemID:     item.ID,
		TargetID:   target.ID,
		Dimension:  dim,
		TargetTime: due,
		BreachTime: now,
	})
	if err != nil {
		s.logger.Printf("Sweep error on %s %d: failed to record %s violation: %v", item.Kind, item.ID, dim, err)
		summary.Errors++
		return
	}
	if !created {
		// Another sweep already handled this breach.
		return
	}
	summary.Violations++
	s.logger.Printf("SLA breach: %s %d %s was due %s", item.Kind, item.ID, dim, due.Format(time.RFC3339))

	escalationTemplate := notifications.TemplateEscalationNotice
	if item.Kind == models.KindTask {
		escalationTemplate = notifications.TemplateEscalationTask
	}
	for _, level := range levels {
		recipients := make([]string, 0, len(level.EscalateToGroups)+len(level.EscalateToAgents)+1)
		recipients = append(recipients, level.EscalateToGroups...)
		recipients = append(recipients, level.EscalateToAgents...)
		recipients = append(recipients, item.BusinessOwnerEmail)
		recipients = notifications.Dedupe(recipients)
		if len(recipients) == 0 {
			continue
		}
		if err := s.dispatcher.Send(ctx, escalationTemplate, recipients, s.templateContext(item, dim, due, level.Level)); err != nil {
			s.logger.Printf("Sweep error on %s %d: escalation level %d dispatch failed: %v", item.Kind, item.ID, level.Level, err)
			summary.Errors++
			continue
		}
		summary.Escalations++
	}

	if wantsNotice {
		recipients := notifications.Dedupe(append(s.itemContacts(item), item.BusinessOwnerEmail))
		if len(recipients) > 0 {
			if err := s.dispatcher.Send(ctx, notifications.TemplateFirstResponseBreach, recipients, s.templateContext(item, dim, due, 0)); err != nil {
				s.logger.Printf("Sweep error on %s %d: first-response notice dispatch failed: %v", item.Kind, item.ID, err)
				summary.Errors++
				return
			}
			summary.FirstResponseNotices++
		}
	}
}

// eligibleLevels returns the active levels for a dimension whose trigger
// offset after the due instant has elapsed, in ascending level order.
func eligibleLevels(target *models.SLATarget, dim models.Dimension, due, now time.Time) []models.SLAEscalationLevel {
	var out []models.SLAEscalationLevel
	for _, level := range target.EscalationLevels {
		if !level.IsActive || level.Dimension != dim {
			continue
		}
		trigger := time.Duration(models.Minutes(level.TriggerTime, level.TriggerUnit)) * time.Minute
		if level.TriggerTime <= 0 {
			trigger = 0
		}
		if !now.Before(due.Add(trigger)) {
			out = append(out, level)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// itemContacts returns the assignee when one exists, otherwise the item's
// department agents.
func (s *Sweeper) itemContacts(item *models.Item) []string {
	if item.AssigneeEmail != "" {
		return []string{item.AssigneeEmail}
	}
	return append([]string{}, item.DepartmentAgents...)
}

func (s *Sweeper) templateContext(item *models.Item, dim models.Dimension, due time.Time, level int) map[string]any {
	itemRef := item.TrackID
	if itemRef == "" {
		itemRef = fmt.Sprintf("%d", item.ID)
	}
	tctx := map[string]any{
		"item_id":   itemRef,
		"kind":      string(item.Kind),
		"title":     item.Title,
		"priority":  item.Priority,
		"status":    item.Status,
		"dimension": string(dim),
		"due":       due,
	}
	if level > 0 {
		tctx["level"] = level
	}
	return tctx
}
