// Package metrics exposes Prometheus counters, histograms, and an HTTP
// /metrics endpoint for the streaming compute core.
package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus metric this engine registers.
type Metrics struct {
	TicksTotal         *prometheus.CounterVec // labels: symbol
	CandlesTotal       *prometheus.CounterVec // labels: symbol, timeframe
	DroppedCandles     *prometheus.CounterVec // labels: symbol, timeframe
	BusPublishErrors   *prometheus.CounterVec // labels: subject
	NodeComputeErrors  *prometheus.CounterVec // labels: node_id, node_type
	NodeComputeDur     *prometheus.HistogramVec
	WarmStartFailures  *prometheus.CounterVec // labels: symbol, timeframe
	PipelineLoadErrors *prometheus.CounterVec // labels: symbol
	DAGBuildErrors     *prometheus.CounterVec // labels: symbol
}

// New registers and returns every metric.
func New() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_ticks_total",
			Help: "Total ticks ingested, by symbol",
		}, []string{"symbol"}),
		CandlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_candles_total",
			Help: "Total candles finalized, by symbol and timeframe",
		}, []string{"symbol", "timeframe"}),
		DroppedCandles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_dropped_candles_total",
			Help: "Candles dropped because the publish callback failed",
		}, []string{"symbol", "timeframe"}),
		BusPublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_bus_publish_errors_total",
			Help: "Bus publish failures, by subject",
		}, []string{"subject"}),
		NodeComputeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_node_compute_errors_total",
			Help: "Node Compute calls that returned an error or panicked",
		}, []string{"node_id", "node_type"}),
		NodeComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corestream_node_compute_duration_seconds",
			Help:    "Node Compute call latency",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"node_id", "node_type"}),
		WarmStartFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_warmstart_failures_total",
			Help: "Warm-start queries that failed, causing a node to cold-start",
		}, []string{"symbol", "timeframe"}),
		PipelineLoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_pipeline_load_errors_total",
			Help: "Pipeline config load failures, by symbol",
		}, []string{"symbol"}),
		DAGBuildErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_dag_build_errors_total",
			Help: "DAG build failures (cycles, unknown sources), by symbol",
		}, []string{"symbol"}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.CandlesTotal,
		m.DroppedCandles,
		m.BusPublishErrors,
		m.NodeComputeErrors,
		m.NodeComputeDur,
		m.WarmStartFailures,
		m.PipelineLoadErrors,
		m.DAGBuildErrors,
	)

	return m
}

// Server runs an HTTP server exposing /metrics.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics server bound to addr.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	_ = s.srv.Shutdown(ctx)
}

// Since is a small helper for recording a duration metric inline:
// m.NodeComputeDur.WithLabelValues(id, typ).Observe(metrics.Since(start))
func Since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
