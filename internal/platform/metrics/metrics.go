// Package metrics holds the Prometheus collectors of the reminder job and
// the HTTP handler that exposes them.
package metrics

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReminderMetrics counts reconciler runs, selected reminder facts and
// per-recipient dispatch outcomes.
type ReminderMetrics struct {
	RunsTotal       *prometheus.CounterVec // runs by mode
	FactsTotal      prometheus.Counter     // reminder facts selected across runs
	DispatchesTotal *prometheus.CounterVec // dispatch attempts by outcome: sent, failed
}

// NewReminderMetrics creates the collectors and registers them with reg.
func NewReminderMetrics(reg prometheus.Registerer) (*ReminderMetrics, error) {
	m := &ReminderMetrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cho_reminder_runs_total",
				Help: "Pending-report reminder runs by mode",
			},
			[]string{"mode"},
		),
		FactsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cho_reminder_facts_total",
				Help: "Due-soon or overdue submissions included in reminder digests",
			},
		),
		DispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cho_reminder_dispatches_total",
				Help: "Reminder digest deliveries by outcome",
			},
			[]string{"outcome"},
		),
	}
	for _, c := range []prometheus.Collector{m.RunsTotal, m.FactsTotal, m.DispatchesTotal} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register reminder metrics: %w", err)
		}
	}
	return m, nil
}

func (m *ReminderMetrics) ObserveRun(mode string, facts int) {
	m.RunsTotal.WithLabelValues(mode).Inc()
	m.FactsTotal.Add(float64(facts))
}

func (m *ReminderMetrics) ObserveDelivery(err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.DispatchesTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
