package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	latency          *prometheus.HistogramVec
	orderEvents      *prometheus.CounterVec
	wsClients        prometheus.Gauge
	tickerBroadcasts *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "http_requests_total",
			Help:      "REST requests by route template, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orderdesk",
			Name:      "http_request_duration_seconds",
			Help:      "REST request latency by route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		orderEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "order_events_total",
			Help:      "Order state changes by resulting status.",
		}, []string{"status"}),
		wsClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "orderdesk",
			Name:      "ws_clients",
			Help:      "Connected WebSocket clients.",
		}),
		tickerBroadcasts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "ticker_broadcasts_total",
			Help:      "Ticker updates pushed by the feeder, by symbol.",
		}, []string{"symbol"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument is mux middleware labelling requests by route template.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
	})
}
