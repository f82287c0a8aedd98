package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "investment_alarm"
	Job       = "investment_alarm"
)

// RunMetrics counts what happened during a single pass over the watch list.
type RunMetrics struct {
	Registry          *prometheus.Registry
	ItemsChecked      prometheus.Counter
	PricesUnavailable prometheus.Counter
	ItemFailures      prometheus.Counter
	AlertsTriggered   prometheus.Counter
	Dispatches        *prometheus.CounterVec
	LastRun           prometheus.Gauge
}

func New() *RunMetrics {
	m := &RunMetrics{
		Registry: prometheus.NewRegistry(),
		ItemsChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch_list",
			Name:      "items_checked_total",
			Help:      "The number of watch-list items processed",
		}),
		PricesUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch_list",
			Name:      "prices_unavailable_total",
			Help:      "The number of items for which no usable price could be obtained",
		}),
		ItemFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch_list",
			Name:      "item_failures_total",
			Help:      "The number of items that failed with an error",
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch_list",
			Name:      "alerts_triggered_total",
			Help:      "The number of alerts whose target was crossed",
		}),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "dispatches_total",
				Help:      "Dispatch attempts per dispatcher and outcome",
			},
			[]string{"dispatcher", "outcome"},
		),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run",
		}),
	}

	m.Registry.MustRegister(
		m.ItemsChecked,
		m.PricesUnavailable,
		m.ItemFailures,
		m.AlertsTriggered,
		m.Dispatches,
		m.LastRun,
	)

	return m
}

// Dispatch outcomes
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

func (m *RunMetrics) Dispatched(dispatcher, outcome string) {
	m.Dispatches.WithLabelValues(dispatcher, outcome).Inc()
}

// Push sends the collected metrics to a Prometheus Pushgateway.
func (m *RunMetrics) Push(url string) error {
	err := push.New(url, Job).Gatherer(m.Registry).Push()
	return errors.Wrapf(err, "could not push metrics to %s", url)
}
