package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// MetricsServer exposes Prometheus metrics on a dedicated listener and
// collects the service's domain metrics: audited decisions by action and
// status, and the current audit chain length.
type MetricsServer struct {
	srv      *http.Server
	registry *prometheus.Registry

	decisions   *prometheus.CounterVec
	chainLength prometheus.Gauge
}

// New creates a metrics server listening on addr with all collectors
// registered under the given namespace.
func New(namespace, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Audited decisions by action and terminal status.",
	}, []string{"action", "status"})

	chainLength := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_chain_length",
		Help:      "Number of entries in the audit ledger.",
	})

	for _, c := range []prometheus.Collector{
		decisions,
		chainLength,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		registry:    registry,
		decisions:   decisions,
		chainLength: chainLength,
	}, nil
}

// ObserveDecision counts one audited decision and grows the chain length
// gauge. It satisfies the coordinator's decision observer.
func (s *MetricsServer) ObserveDecision(action interfaces.Action, status interfaces.AccessStatus) {
	s.decisions.WithLabelValues(action.String(), status.String()).Inc()
	s.chainLength.Inc()
}

// SetChainLength resets the gauge, used when resuming a persisted ledger.
func (s *MetricsServer) SetChainLength(n int) {
	s.chainLength.Set(float64(n))
}

// ListenAndServe starts serving the /metrics endpoint.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
