// Package metrics holds the service's Prometheus counters on a private
// registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pledgewall"

type Metrics struct {
	registry *prometheus.Registry

	PledgesSubmitted   prometheus.Counter
	ValidationFailures prometheus.Counter
	StoreErrors        *prometheus.CounterVec
	ViewRefreshes      *prometheus.CounterVec
	FeedEvents         *prometheus.CounterVec
	CertificateRenders *prometheus.CounterVec
	SSEClients         prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PledgesSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pledges_submitted_total",
			Help:      "Total number of pledges stored",
		}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Total number of submissions rejected before reaching the store",
		}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of failed store requests",
		}, []string{"op"}),
		ViewRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_refreshes_total",
			Help:      "Total number of view refetches",
		}, []string{"view"}),
		FeedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_events_total",
			Help:      "Total number of change events accepted by the broker",
		}, []string{"table", "op"}),
		CertificateRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "certificate_renders_total",
			Help:      "Total number of certificates rendered",
		}, []string{"format"}),
		SSEClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Number of connected event-stream clients",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncSubmitted() {
	if m != nil {
		m.PledgesSubmitted.Inc()
	}
}

func (m *Metrics) IncValidationFailure() {
	if m != nil {
		m.ValidationFailures.Inc()
	}
}

func (m *Metrics) IncStoreError(op string) {
	if m != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncRefresh(view string) {
	if m != nil {
		m.ViewRefreshes.WithLabelValues(view).Inc()
	}
}

func (m *Metrics) IncFeedEvent(table, op string) {
	if m != nil {
		m.FeedEvents.WithLabelValues(table, op).Inc()
	}
}

func (m *Metrics) IncRender(format string) {
	if m != nil {
		m.CertificateRenders.WithLabelValues(format).Inc()
	}
}

func (m *Metrics) SSEConnected() {
	if m != nil {
		m.SSEClients.Inc()
	}
}

func (m *Metrics) SSEDisconnected() {
	if m != nil {
		m.SSEClients.Dec()
	}
}
