// Package metrics holds the prometheus collectors of speechBridge. They
// are registered with the default registry and exposed by the webserver
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	ActiveSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "speechbridge_active_sessions",
		Help: "Number of initialized codec sessions by direction",
	}, []string{"direction"})
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "speechbridge_active_streams",
		Help: "Number of open websocket encode streams",
	})
)

// Counters
var (
	PacketsEncodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speechbridge_packets_encoded_total",
		Help: "Total packets produced by encoder sessions",
	})
	FramesSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speechbridge_frames_suppressed_total",
		Help: "Total silent frames suppressed by DTX",
	})
	PacketsDecodedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speechbridge_packets_decoded_total",
		Help: "Total packets handled by decoder sessions by delivery class",
	}, []string{"class"})
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speechbridge_errors_total",
		Help: "Total session errors by kind",
	}, []string{"kind"})
	BoundaryCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speechbridge_boundary_calls_total",
		Help: "Total bridge calls by operation and outcome",
	}, []string{"op", "outcome"})
)

// Histograms
var (
	CallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speechbridge_call_duration_seconds",
		Help:    "Bridge call duration in seconds by operation",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
	}, []string{"op"})
)
