package metrics

import "github.com/prometheus/client_golang/prometheus"

// StreamMetrics holds Prometheus metrics for live feed WebSocket connections.
type StreamMetrics struct {
	ActiveConnections prometheus.Gauge
	SnapshotsSent     prometheus.Counter
	PingFailures      prometheus.Counter
}

// NewStreamMetrics creates and registers live feed metrics on the given registry.
func NewStreamMetrics(reg prometheus.Registerer) *StreamMetrics {
	m := &StreamMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "active_connections",
			Help:      "Number of open live feed connections.",
		}),
		SnapshotsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "snapshots_sent_total",
			Help:      "Total number of snapshots written to live feed clients.",
		}),
		PingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "ping_failures_total",
			Help:      "Total number of keepalive pings that could not be written.",
		}),
	}

	reg.MustRegister(m.ActiveConnections, m.SnapshotsSent, m.PingFailures)
	return m
}
