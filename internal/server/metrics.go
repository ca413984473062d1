package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsRegistry struct {
	registry    *prometheus.Registry
	writesTotal *prometheus.CounterVec
	readsTotal  *prometheus.CounterVec
	inProgress  prometheus.Gauge
}

func newMetricsRegistry() *metricsRegistry {
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scorechain_borrower_writes_total",
		Help: "Total number of borrower upsert submissions",
	}, []string{"status"})

	reads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scorechain_borrower_reads_total",
		Help: "Total number of borrower detail reads",
	}, []string{"status"})

	inProgress := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scorechain_operation_in_progress",
		Help: "Whether a chain operation is currently in flight (0 or 1)",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(writes, reads, inProgress)

	return &metricsRegistry{
		registry:    r,
		writesTotal: writes,
		readsTotal:  reads,
		inProgress:  inProgress,
	}
}

func (m *metricsRegistry) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metricsRegistry) incWrite(status string) {
	m.writesTotal.WithLabelValues(status).Inc()
}

func (m *metricsRegistry) incRead(status string) {
	m.readsTotal.WithLabelValues(status).Inc()
}

func (m *metricsRegistry) setInProgress(active bool) {
	if active {
		m.inProgress.Set(1)
	} else {
		m.inProgress.Set(0)
	}
}
