// Package metrics defines the Prometheus collectors exported by peopledesk.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for data operations.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Recorder counts data operations. A nil *Recorder records nothing.
type Recorder struct {
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	storeUp    prometheus.Gauge
}

// New creates a recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "peopledesk",
			Name:      "data_operations_total",
			Help:      "Data operations by collection, operation and outcome.",
		}, []string{"collection", "operation", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "peopledesk",
			Name:      "store_failures_total",
			Help:      "Store failures by collection and failure kind.",
		}, []string{"collection", "kind"}),
		storeUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "peopledesk",
			Name:      "store_up",
			Help:      "1 when the last store probe succeeded.",
		}),
	}
	reg.MustRegister(r.operations, r.failures, r.storeUp)
	return r
}

// Operation counts one data operation.
func (r *Recorder) Operation(collection, operation, outcome string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(collection, operation, outcome).Inc()
}

// Failure counts one classified store failure.
func (r *Recorder) Failure(collection, kind string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(collection, kind).Inc()
}

// StoreUp records the store reachability.
func (r *Recorder) StoreUp(up bool) {
	if r == nil {
		return
	}
	if up {
		r.storeUp.Set(1)
		return
	}
	r.storeUp.Set(0)
}

// Handler serves the metrics registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
