package client

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics — счётчики клиента. Нулевой *Metrics допустим: все методы no-op.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	inflight  prometheus.Gauge
	refreshes *prometheus.CounterVec
	retries   prometheus.Counter
	queued    prometheus.Counter
}

// NewMetrics создаёт и регистрирует метрики клиента в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outbound HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portfolio",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Outbound HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "portfolio",
			Subsystem: "client",
			Name:      "requests_in_flight",
			Help:      "Outbound HTTP requests currently in flight.",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "client",
			Name:      "token_refresh_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Requests replayed after a 401.",
		}),
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "client",
			Name:      "queued_total",
			Help:      "Requests that waited for an in-flight refresh.",
		}),
	}

	reg.MustRegister(m.requests, m.duration, m.inflight, m.refreshes, m.retries, m.queued)

	return m
}

// instrument оборачивает транспорт стандартными promhttp-обёртками.
func (m *Metrics) instrument(rt http.RoundTripper) http.RoundTripper {
	if m == nil {
		return rt
	}

	return promhttp.InstrumentRoundTripperInFlight(m.inflight,
		promhttp.InstrumentRoundTripperCounter(m.requests,
			promhttp.InstrumentRoundTripperDuration(m.duration, rt),
		),
	)
}

func (m *Metrics) refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) wait() {
	if m == nil {
		return
	}
	m.queued.Inc()
}
