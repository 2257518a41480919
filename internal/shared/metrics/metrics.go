package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	imageRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "image_generation_requests_total",
		Help: "Image generation requests by plan and outcome",
	}, []string{"plan", "outcome"})

	imageDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "image_generation_duration_seconds",
		Help:    "Duration of provider image calls by result (success or error)",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"result"})

	quotaRejectionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "quota_rejections_total",
		Help: "Generation requests rejected by the quota gate",
	}, []string{"window"})

	ledgerRecordFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "ledger_record_failures_total",
		Help: "Usage events that could not be recorded after a successful generation",
	})

	billingEventsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_webhook_events_total",
		Help: "Billing webhook events by type and outcome",
	}, []string{"type", "outcome"})

	chatRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_requests_total",
		Help: "Chat proxy requests by outcome",
	}, []string{"outcome"})

	panicsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "http_panics_total",
		Help: "Handler panics recovered per route",
	}, []string{"route"})

	httpRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncImageRequest counts a generation attempt.
func IncImageRequest(plan, outcome string) {
	imageRequestsTotal.WithLabelValues(plan, outcome).Inc()
}

// ObserveImageDuration records a provider call duration. result is
// "success" or "error".
func ObserveImageDuration(result string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	imageDuration.WithLabelValues(result).Observe(d.Seconds())
}

// IncQuotaRejection counts a quota denial for window (daily or monthly).
func IncQuotaRejection(window string) {
	quotaRejectionsTotal.WithLabelValues(window).Inc()
}

// IncLedgerRecordFailure counts an unrecorded successful generation.
func IncLedgerRecordFailure() {
	ledgerRecordFailuresTotal.Inc()
}

// IncBillingEvent counts a webhook event.
func IncBillingEvent(eventType, outcome string) {
	billingEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// IncChatRequest counts a chat proxy call.
func IncChatRequest(outcome string) {
	chatRequestsTotal.WithLabelValues(outcome).Inc()
}

// IncHTTPRequest counts a served request.
func IncHTTPRequest(method, route, status string) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// IncPanic counts a recovered handler panic.
func IncPanic(route string) {
	panicsTotal.WithLabelValues(route).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
