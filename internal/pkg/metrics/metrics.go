/*
Package metrics exposes Prometheus instrumentation for the relay.

Collectors are registered on the default registry via promauto and served at
/metrics by the router.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveConnections tracks currently open WebSocket connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codecollab_active_connections",
		Help: "Number of currently open WebSocket connections.",
	})

	// JoinsTotal counts join requests by outcome (accepted, rejected).
	JoinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codecollab_joins_total",
		Help: "Join requests processed, partitioned by outcome.",
	}, []string{"outcome"})

	// EventsRelayed counts generic events fanned out to room members.
	EventsRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codecollab_events_relayed_total",
		Help: "Generic events relayed to other room members.",
	})
)

// Handler serves the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
