package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladesk-io/sladesk/internal/config"
)

type captureProvider struct {
	last EmailMessage
	err  error
}

func (p *captureProvider) Send(_ context.Context, msg EmailMessage) error {
	if p.err != nil {
		return p.err
	}
	p.last = msg
	return nil
}

func emailConfig() *config.EmailConfig {
	cfg := &config.EmailConfig{Enabled: true, From: "sla@example.com"}
	cfg.SendTimeout = 5 * time.Second
	return cfg
}

func TestEmailDispatcherRendersBuiltins(t *testing.T) {
	ctx := context.Background()
	provider := &captureProvider{}
	d := NewEmailDispatcher(provider, emailConfig(), nil)

	due := time.Now().Add(25 * time.Minute)
	err := d.Send(ctx, TemplateReminder, []string{"agent@example.com"}, map[string]any{
		"item_id":   "TKT-1042",
		"title":     "Printer on fire",
		"dimension": "resolution",
		"priority":  "high",
		"status":    "assigned",
		"due":       due,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"agent@example.com"}, provider.last.To)
	assert.Contains(t, provider.last.Subject, "TKT-1042")
	assert.Contains(t, provider.last.Subject, "resolution")
	assert.Contains(t, provider.last.Body, "Printer on fire")
	assert.Contains(t, provider.last.Body, "high")

	t.Run("time values get a human form", func(t *testing.T) {
		assert.Contains(t, provider.last.Body, due.Format(time.RFC1123))
	})
}

func TestEmailDispatcherEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("no recipients is a silent no-op", func(t *testing.T) {
		provider := &captureProvider{err: errors.New("should not be called")}
		d := NewEmailDispatcher(provider, emailConfig(), nil)
		assert.NoError(t, d.Send(ctx, TemplateReminder, nil, nil))
	})

	t.Run("unknown template errors", func(t *testing.T) {
		d := NewEmailDispatcher(&captureProvider{}, emailConfig(), nil)
		err := d.Send(ctx, "NO_SUCH_TEMPLATE", []string{"a@x.com"}, nil)
		assert.Error(t, err)
	})

	t.Run("provider failure is wrapped", func(t *testing.T) {
		boom := errors.New("smtp down")
		d := NewEmailDispatcher(&captureProvider{err: boom}, emailConfig(), nil)
		err := d.Send(ctx, TemplateEscalationNotice, []string{"a@x.com"}, map[string]any{"item_id": "1", "level": 1})
		assert.ErrorIs(t, err, boom)
	})
}
