// Package metrics holds the Prometheus collectors of the retrieval service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	backendLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retriever_backend_latency_ms",
		Help:    "Latency of backend searches in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 200, 300, 500, 800, 1200, 2000, 5000, 10000},
	}, []string{"backend"})

	backendResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retriever_backend_results",
		Help:    "Number of documents returned by a backend",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	}, []string{"backend"})

	routeDecision = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retriever_route_total",
		Help: "Executed routes by hedge reason",
	}, []string{"route", "hedge_reason"})

	classifierFallback = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retriever_classifier_fallback_total",
		Help: "Turns where the classifier fell back to the default decision",
	})

	sessionDegraded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retriever_session_degraded_total",
		Help: "Session store failures absorbed by the orchestrator",
	}, []string{"op"})

	retrievalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "retriever_run_duration_ms",
		Help:    "End-to-end duration of one retrieval run in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 20000, 40000},
	})

	documentsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retriever_documents_ingested_total",
		Help: "Chunks embedded and stored by the ingestion pipeline",
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// ObserveBackend records latency and result size for a backend.
func ObserveBackend(name string, start time.Time, results int) {
	ensureRegistered()
	backendLatency.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	backendResults.WithLabelValues(name).Observe(float64(results))
}

// IncRoute counts an executed route. hedgeReason is empty for unhedged runs.
func IncRoute(route, hedgeReason string) {
	ensureRegistered()
	if hedgeReason == "" {
		hedgeReason = "none"
	}
	routeDecision.WithLabelValues(route, hedgeReason).Inc()
}

func IncClassifierFallback() {
	ensureRegistered()
	classifierFallback.Inc()
}

// IncSessionDegraded counts a failed session read ("history") or write ("append").
func IncSessionDegraded(op string) {
	ensureRegistered()
	sessionDegraded.WithLabelValues(op).Inc()
}

func ObserveRun(start time.Time) {
	ensureRegistered()
	retrievalDuration.Observe(float64(time.Since(start).Milliseconds()))
}

func AddIngested(n int) {
	ensureRegistered()
	documentsIngested.Add(float64(n))
}

// Collectors exposes all collectors for registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		backendLatency, backendResults, routeDecision, classifierFallback,
		sessionDegraded, retrievalDuration, documentsIngested,
	}
}
