package engine

import (
	"github.com/micromdm/nanointake/workflow"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nanointake"

// Metrics counts workflow transitions.
type Metrics struct {
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
}

// NewMetrics creates and registers the engine metrics with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Total number of persisted workflow transitions",
			},
			[]string{"event", "from", "to"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_events_total",
				Help:      "Total number of events not accepted in the current state",
			},
			[]string{"event", "state"},
		),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.rejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) transition(ev workflow.Event, from, to workflow.State) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(ev.Name(), string(from), string(to)).Inc()
}

func (m *Metrics) reject(ev workflow.Event, s workflow.State) {
	if m == nil || ev == nil {
		return
	}
	m.rejected.WithLabelValues(ev.Name(), string(s)).Inc()
}
