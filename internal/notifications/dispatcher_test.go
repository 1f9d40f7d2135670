package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"b@x.com", "a@x.com", "b@x.com", "", "a@x.com"})
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, got)

	assert.Nil(t, Dedupe(nil))
	assert.Nil(t, Dedupe([]string{"", ""}))
}

func TestMemoryDispatcher(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDispatcher()

	require.NoError(t, d.Send(ctx, TemplateReminder, []string{"a@x.com"}, map[string]any{"item_id": "TKT-1"}))
	require.NoError(t, d.Send(ctx, TemplateEscalationNotice, []string{"b@x.com"}, nil))

	sent := d.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, TemplateReminder, sent[0].Template)
	assert.Equal(t, "TKT-1", sent[0].Context["item_id"])

	t.Run("failure mode", func(t *testing.T) {
		boom := errors.New("boom")
		d.FailWith(boom)
		assert.ErrorIs(t, d.Send(ctx, TemplateReminder, []string{"a@x.com"}, nil), boom)
		assert.Len(t, d.Sent(), 2, "failed sends are not recorded")
	})
}
