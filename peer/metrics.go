package peer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors a Connection reports to. A single
// Metrics may be shared by any number of connections.
type Metrics struct {
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	bytesSent        prometheus.Counter
	bytesReceived    prometheus.Counter
	failures         *prometheus.CounterVec
	handshakes       prometheus.Histogram
}

// NewMetrics creates the connection collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		messagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "btcp2p",
			Subsystem: "peer",
			Name:      "messages_sent_total",
			Help:      "Number of messages sent, by command.",
		}, []string{"command"}),
		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "btcp2p",
			Subsystem: "peer",
			Name:      "messages_received_total",
			Help:      "Number of messages received, by command.",
		}, []string{"command"}),
		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "btcp2p",
			Subsystem: "peer",
			Name:      "bytes_sent_total",
			Help:      "Number of bytes sent, headers included.",
		}),
		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "btcp2p",
			Subsystem: "peer",
			Name:      "bytes_received_total",
			Help:      "Number of bytes received, headers included.",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "btcp2p",
			Subsystem: "peer",
			Name:      "failures_total",
			Help:      "Number of connection failures, by kind.",
		}, []string{"kind"}),
		handshakes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "btcp2p",
			Subsystem: "peer",
			Name:      "handshake_duration_seconds",
			Help:      "Time from dialing a peer to completing the handshake.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// The methods below accept a nil receiver so a Connection without metrics
// needs no checks.

func (m *Metrics) sent(command string, n int) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(command).Inc()
	m.bytesSent.Add(float64(n))
}

func (m *Metrics) received(command string, n int) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(command).Inc()
	m.bytesReceived.Add(float64(n))
}

func (m *Metrics) failed(err error) {
	if m == nil {
		return
	}
	kind := "other"
	if connErr, ok := err.(*ConnectionError); ok {
		kind = connErr.Kind.Error()
	}
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) handshakeDone(seconds float64) {
	if m == nil {
		return
	}
	m.handshakes.Observe(seconds)
}
