package sla

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sladesk_sweep_runs_total",
		Help: "Completed compliance sweep runs.",
	})
	sweepMonitored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sladesk_sweep_items_monitored_total",
		Help: "Items examined across all sweeps.",
	})
	sweepPausedSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sladesk_sweep_items_paused_total",
		Help: "Items skipped because their SLA was paused.",
	})
	sweepViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sladesk_sweep_violations_total",
		Help: "New violation records created by sweeps.",
	})
	sweepReminders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sladesk_sweep_reminders_total",
		Help: "Reminder notifications dispatched by sweeps.",
	})
	sweepEscalations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sladesk_sweep_escalations_total",
		Help: "Escalation notifications dispatched by sweeps.",
	})
	sweepFirstResponse = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sladesk_sweep_first_response_notices_total",
		Help: "First-response breach notices dispatched by sweeps.",
	})
	sweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sladesk_sweep_item_errors_total",
		Help: "Items that failed during a sweep and were skipped.",
	})
)

func recordSweepMetrics(summary *Summary) {
	sweepRuns.Inc()
	sweepMonitored.Add(float64(summary.Monitored))
	sweepPausedSkipped.Add(float64(summary.PausedSkipped))
	sweepViolations.Add(float64(summary.Violations))
	sweepReminders.Add(float64(summary.Reminders))
	sweepEscalations.Add(float64(summary.Escalations))
	sweepFirstResponse.Add(float64(summary.FirstResponseNotices))
	sweepErrors.Add(float64(summary.Errors))
}
