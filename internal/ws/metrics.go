package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Currently open websocket connections",
		},
	)
	wsEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_total",
			Help: "Realtime events relayed by the hub",
		},
		[]string{"event"},
	)
	wsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_dropped_total",
			Help: "Realtime events dropped by the hub",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(wsConnections)
	prometheus.MustRegister(wsEvents)
	prometheus.MustRegister(wsDropped)
}
