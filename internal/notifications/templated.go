package notifications

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/xeonx/timeago"

	"github.com/sladesk-io/sladesk/internal/config"
)

// Built-in subject lines and bodies, used when no template directory is
// configured or a named template file is missing. Bodies are pongo2 source.
var defaultSubjects = map[string]string{
	TemplateReminder:            "SLA reminder: ticket #{{ item_id }} {{ dimension }} due {{ due_human }}",
	TemplateReminderTask:        "SLA reminder: task #{{ item_id }} {{ dimension }} due {{ due_human }}",
	TemplateEscalationNotice:    "SLA escalation (level {{ level }}): ticket #{{ item_id }} breached {{ dimension }}",
	TemplateEscalationTask:      "SLA escalation (level {{ level }}): task #{{ item_id }} breached {{ dimension }}",
	TemplateFirstResponseBreach: "First response overdue: ticket #{{ item_id }}",
}

var defaultBodies = map[string]string{
	TemplateReminder: `Ticket #{{ item_id }} "{{ title }}" is approaching its {{ dimension }} deadline.

Due: {{ due }} ({{ due_human }})
Priority: {{ priority }}
Status: {{ status }}
`,
	TemplateReminderTask: `Task #{{ item_id }} "{{ title }}" is approaching its {{ dimension }} deadline.

Due: {{ due }} ({{ due_human }})
Priority: {{ priority }}
Status: {{ status }}
`,
	TemplateEscalationNotice: `Ticket #{{ item_id }} "{{ title }}" has breached its {{ dimension }} target.

Was due: {{ due }} ({{ due_human }})
Escalation level: {{ level }}
Priority: {{ priority }}
Status: {{ status }}
`,
	TemplateEscalationTask: `Task #{{ item_id }} "{{ title }}" has breached its {{ dimension }} target.

Was due: {{ due }} ({{ due_human }})
Escalation level: {{ level }}
Priority: {{ priority }}
Status: {{ status }}
`,
	TemplateFirstResponseBreach: `Ticket #{{ item_id }} "{{ title }}" has not received a first response.

First response was due: {{ due }} ({{ due_human }})
Priority: {{ priority }}
Status: {{ status }}
`,
}

// EmailDispatcher renders notification templates with pongo2 and hands the
// result to an EmailProvider. Sends are bounded by the configured timeout.
type EmailDispatcher struct {
	provider EmailProvider
	cfg      *config.EmailConfig
	logger   *log.Logger

	mu       sync.Mutex
	compiled map[string]*pongo2.Template
}

// NewEmailDispatcher creates a dispatcher over the given provider. A nil
// logger falls back to the standard logger.
func NewEmailDispatcher(provider EmailProvider, cfg *config.EmailConfig, logger *log.Logger) *EmailDispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &EmailDispatcher{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		compiled: make(map[string]*pongo2.Template),
	}
}

// Send renders the named template and delivers it to recipients.
func (d *EmailDispatcher) Send(ctx context.Context, template string, recipients []string, tctx map[string]any) error {
	if len(recipients) == 0 {
		return nil
	}

	pctx := pongo2.Context(humanize(tctx))

	subject, err := d.render(template+".subject", defaultSubjects[template], pctx)
	if err != nil {
		return fmt.Errorf("failed to render subject for %s: %w", template, err)
	}
	body, err := d.render(template, defaultBodies[template], pctx)
	if err != nil {
		return fmt.Errorf("failed to render body for %s: %w", template, err)
	}

	timeout := d.cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg := EmailMessage{To: recipients, Subject: subject, Body: body}
	if err := d.provider.Send(sendCtx, msg); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", template, err)
	}

	d.logger.Printf("Sent %s notification to %d recipient(s)", template, len(recipients))
	return nil
}

// render compiles from the template directory when one is configured and the
// file exists, otherwise from the built-in source. Compiled templates are
// cached per name.
func (d *EmailDispatcher) render(name, fallback string, pctx pongo2.Context) (string, error) {
	tpl, err := d.template(name, fallback)
	if err != nil {
		return "", err
	}
	return tpl.Execute(pctx)
}

func (d *EmailDispatcher) template(name, fallback string) (*pongo2.Template, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if tpl, ok := d.compiled[name]; ok {
		return tpl, nil
	}

	if d.cfg != nil && d.cfg.TemplateDir != "" {
		path := filepath.Join(d.cfg.TemplateDir, name+".tpl")
		if tpl, err := pongo2.FromFile(path); err == nil {
			d.compiled[name] = tpl
			return tpl, nil
		}
	}

	if fallback == "" {
		return nil, fmt.Errorf("no template registered for %q", name)
	}
	tpl, err := pongo2.FromString(fallback)
	if err != nil {
		return nil, fmt.Errorf("failed to compile template %q: %w", name, err)
	}
	d.compiled[name] = tpl
	return tpl, nil
}

// humanize copies the context and adds a "<key>_human" relative-time string
// for every time.Time value, so templates can say "due in 28 minutes".
func humanize(tctx map[string]any) map[string]any {
	out := make(map[string]any, len(tctx)*2)
	for k, v := range tctx {
		out[k] = v
		if t, ok := v.(time.Time); ok {
			out[k+"_human"] = timeago.English.Format(t)
			out[k] = t.Format(time.RFC1123)
		}
	}
	return out
}
