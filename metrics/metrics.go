// Package metrics is a thin Prometheus registerer wrapper used by the
// router, transport and fork tree components.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics wraps a prometheus.Registerer and owns the collectors this
// module's components register against it.
type Metrics struct {
	Registry prometheus.Registerer

	RouterRegistrations      prometheus.Counter
	RouterMessagesRelayed    *prometheus.CounterVec
	RouterRegistrationPasses prometheus.Counter

	HandshakesCompleted prometheus.Counter
	HandshakesFailed    *prometheus.CounterVec

	ForkTreeDepth  prometheus.Gauge
	ForkTreePrunes prometheus.Counter
}

// New creates and registers every collector against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registry: reg,
		RouterRegistrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dunicore",
			Subsystem: "router",
			Name:      "registrations_total",
			Help:      "Number of modules that have completed registration.",
		}),
		RouterMessagesRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dunicore",
			Subsystem: "router",
			Name:      "messages_relayed_total",
			Help:      "Number of messages relayed by the router, by kind.",
		}, []string{"kind"}),
		RouterRegistrationPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dunicore",
			Subsystem: "router",
			Name:      "registration_timeouts_total",
			Help:      "Number of times the registration barrier timed out.",
		}),
		HandshakesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dunicore",
			Subsystem: "transport",
			Name:      "handshakes_completed_total",
			Help:      "Number of secure-transport handshakes reaching Established.",
		}),
		HandshakesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dunicore",
			Subsystem: "transport",
			Name:      "handshakes_failed_total",
			Help:      "Number of secure-transport handshakes ending in Fail, by reason.",
		}, []string{"reason"}),
		ForkTreeDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dunicore",
			Subsystem: "forktree",
			Name:      "main_branch_len",
			Help:      "Current length of the main branch.",
		}),
		ForkTreePrunes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dunicore",
			Subsystem: "forktree",
			Name:      "prunes_total",
			Help:      "Number of root-advancing pruning passes.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.RouterRegistrations,
		m.RouterMessagesRelayed,
		m.RouterRegistrationPasses,
		m.HandshakesCompleted,
		m.HandshakesFailed,
		m.ForkTreeDepth,
		m.ForkTreePrunes,
	} {
		_ = reg.Register(c)
	}
	return m
}

// Register registers an additional collector, surfaced for components that
// need ad-hoc collectors beyond the fixed set above.
func (m *Metrics) Register(c prometheus.Collector) error {
	return m.Registry.Register(c)
}
