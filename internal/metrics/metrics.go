package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// Restore outcomes
const (
	OutcomeRestored  = "restored"
	OutcomeEmpty     = "empty"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// Metrics holds the Prometheus collectors of the storefront. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	cartMutations *prometheus.CounterVec
	authAttempts  *prometheus.CounterVec
	restores      *prometheus.CounterVec
	activeClients prometheus.Gauge
	evictions     *prometheus.CounterVec
	checkouts     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cartMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart state transitions by action",
		}, []string{"action"}),

		authAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Register and login attempts by outcome",
		}, []string{"operation", "outcome"}),

		restores: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_restores_total",
			Help:      "Startup restores of persisted state by store and outcome",
		}, []string{"store", "outcome"}),

		activeClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_clients",
			Help:      "Clients with loaded stores",
		}),

		evictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_evictions_total",
			Help:      "Clients dropped from memory by reason",
		}, []string{"reason"}),

		checkouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_events_total",
			Help:      "Checkout events that cleared a cart",
		}),
	}
}

func (m *Metrics) CartMutation(action string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(action).Inc()
}

func (m *Metrics) AuthAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Restore(store, outcome string) {
	if m == nil {
		return
	}
	m.restores.WithLabelValues(store, outcome).Inc()
}

func (m *Metrics) ClientLoaded() {
	if m == nil {
		return
	}
	m.activeClients.Inc()
}

// ClientEvicted records a client dropped from memory; reason is "capacity"
// or "idle".
func (m *Metrics) ClientEvicted(reason string) {
	if m == nil {
		return
	}
	m.activeClients.Dec()
	m.evictions.WithLabelValues(reason).Inc()
}

func (m *Metrics) CheckoutCleared() {
	if m == nil {
		return
	}
	m.checkouts.Inc()
}
