// Package metrics exposes Prometheus metrics for the supervisor and its
// companion loops.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var lifecycleStates = []string{"offline", "starting", "online", "stopping", "error"}

var (
	serverLifecycle = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcwarden_server_lifecycle",
			Help: "Current supervisor lifecycle state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcwarden_operations_total",
			Help: "Supervisor operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	serverOutputLinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mcwarden_server_output_lines_total",
			Help: "Lines of server output relayed to the log sink",
		},
	)

	presenceUpdatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mcwarden_presence_updates_total",
			Help: "Presence broadcasts actually sent (debounced)",
		},
	)

	presenceFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mcwarden_presence_failures_total",
			Help: "Presence broadcasts that failed (non-fatal)",
		},
	)

	modsScannedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mcwarden_mod_scans_total",
			Help: "Mod directory scans performed (cache misses)",
		},
	)
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		serverLifecycle,
		operationsTotal,
		serverOutputLinesTotal,
		presenceUpdatesTotal,
		presenceFailuresTotal,
		modsScannedTotal,
	)

	// The daemon boots offline
	SetLifecycle("offline")
}

// SetLifecycle marks the given lifecycle state active and all others inactive.
func SetLifecycle(state string) {
	for _, s := range lifecycleStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		serverLifecycle.WithLabelValues(s).Set(value)
	}
}

// RecordOperation counts a supervisor operation outcome.
func RecordOperation(operation, outcome string) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordOutputLine counts one relayed server output line.
func RecordOutputLine() {
	serverOutputLinesTotal.Inc()
}

// RecordPresenceUpdate counts one successful presence broadcast.
func RecordPresenceUpdate() {
	presenceUpdatesTotal.Inc()
}

// RecordPresenceFailure counts one failed presence broadcast.
func RecordPresenceFailure() {
	presenceFailuresTotal.Inc()
}

// RecordModScan counts one real (non-cached) mod directory scan.
func RecordModScan() {
	modsScannedTotal.Inc()
}

// Handler returns the HTTP handler serving the daemon's metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
