// Package metrics holds the prometheus collectors for the relay. All are
// registered on the default registry and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connections_active",
		Help: "Currently registered connections.",
	})

	ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_connections_total",
		Help: "Connections accepted since start.",
	})

	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_auth_failures_total",
		Help: "Handshakes rejected for a missing or invalid token.",
	})

	FramesIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_frames_in_total",
		Help: "Inbound frames read from clients.",
	})

	FramesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_frames_out_total",
		Help: "Outbound frames queued for delivery.",
	})

	InvalidFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_invalid_frames_total",
		Help: "Inbound frames that failed to parse.",
	})

	BroadcastDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_broadcast_drops_total",
		Help: "Deliveries dropped because the recipient buffer was full.",
	})
)
