// Package notifications delivers templated SLA notifications. The sweep
// talks to the Dispatcher interface only; delivery transport and template
// rendering stay behind it.
package notifications

import (
	"context"
	"sort"
	"sync"
)

// Template names the engine dispatches.
const (
	TemplateReminder            = "SLA_REMINDER"
	TemplateReminderTask        = "SLA_REMINDER_TASK"
	TemplateEscalationNotice    = "SLA_ESCALATION_NOTICE"
	TemplateEscalationTask      = "SLA_ESCALATION_NOTICE_TASK"
	TemplateFirstResponseBreach = "SLA_FIRST_RESPONSE_NOTIFICATION_ESCALATION"
)

// Dispatcher sends one templated notification to a recipient list.
type Dispatcher interface {
	Send(ctx context.Context, template string, recipients []string, context map[string]any) error
}

// Dedupe removes duplicate recipients and empty entries, returning a sorted
// list so dispatch order is deterministic.
func Dedupe(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	var out []string
	for _, r := range recipients {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// SentMessage is a notification recorded by the memory dispatcher.
type SentMessage struct {
	Template   string
	Recipients []string
	Context    map[string]any
}

// MemoryDispatcher records notifications instead of delivering them.
type MemoryDispatcher struct {
	mu   sync.Mutex
	sent []SentMessage
	err  error
}

// NewMemoryDispatcher creates a recording dispatcher for tests.
func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{}
}

// FailWith makes every subsequent Send return err.
func (d *MemoryDispatcher) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Send records the message.
func (d *MemoryDispatcher) Send(_ context.Context, template string, recipients []string, context map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, SentMessage{Template: template, Recipients: recipients, Context: context})
	return nil
}

// Sent returns a copy of the recorded messages.
func (d *MemoryDispatcher) Sent() []SentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]SentMessage, len(d.sent))
	copy(out, d.sent)
	return out
}
