// Package metrics exposes the Prometheus instrumentation for the host
// process. The layout engine itself stays uninstrumented; counters tick at
// the seams around it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// NotesIndexed counts documents written to the index, from any path
	// (startup sync, watcher, API, MCP).
	NotesIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindnexus_notes_indexed_total",
		Help: "Documents parsed and upserted into the index.",
	})

	// GraphRebuilds counts layout submissions to the engine.
	GraphRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindnexus_graph_rebuilds_total",
		Help: "Layout runs started by vault or AI-link changes.",
	})

	// LayoutSteps counts simulation steps across all runs.
	LayoutSteps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindnexus_layout_steps_total",
		Help: "Force simulation steps executed.",
	})

	// SSEClients tracks currently connected event stream subscribers.
	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mindnexus_sse_clients",
		Help: "Connected Server-Sent Events subscribers.",
	})
)

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
