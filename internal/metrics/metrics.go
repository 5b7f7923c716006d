package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay's Prometheus instruments. A nil *Metrics is valid
// and turns every method into a no-op, so tests can pass nil.
type Metrics struct {
	connectionsActive prometheus.Gauge
	messagesPublished prometheus.Counter
	messagesDeleted   prometheus.Counter
	messagesReplayed  prometheus.Counter
	eventsDropped     prometheus.Counter
	storageErrors     prometheus.Counter
	handshakeFailures *prometheus.CounterVec
}

// New registers the relay instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "wirerelay",
			Name:      "connections_active",
			Help:      "Number of currently registered connections.",
		}),
		messagesPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wirerelay",
			Name:      "messages_published_total",
			Help:      "Messages appended to the log and broadcast.",
		}),
		messagesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wirerelay",
			Name:      "messages_deleted_total",
			Help:      "Messages removed from the log.",
		}),
		messagesReplayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wirerelay",
			Name:      "messages_replayed_total",
			Help:      "Messages replayed to fresh connections catching up on missed history.",
		}),
		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wirerelay",
			Name:      "events_dropped_total",
			Help:      "Events dropped because a connection's send buffer was full.",
		}),
		storageErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wirerelay",
			Name:      "storage_errors_total",
			Help:      "Storage operations that failed for reasons other than not-found.",
		}),
		handshakeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirerelay",
			Name:      "handshake_failures_total",
			Help:      "Connections rejected during the hello handshake.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connectionsActive.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) MessagePublished() {
	if m == nil {
		return
	}
	m.messagesPublished.Inc()
}

func (m *Metrics) MessageDeleted() {
	if m == nil {
		return
	}
	m.messagesDeleted.Inc()
}

func (m *Metrics) MessagesReplayed(n int) {
	if m == nil {
		return
	}
	m.messagesReplayed.Add(float64(n))
}

func (m *Metrics) EventsDropped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.eventsDropped.Add(float64(n))
}

func (m *Metrics) StorageError() {
	if m == nil {
		return
	}
	m.storageErrors.Inc()
}

func (m *Metrics) HandshakeFailed(reason string) {
	if m == nil {
		return
	}
	m.handshakeFailures.WithLabelValues(reason).Inc()
}
