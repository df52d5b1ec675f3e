package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by API and worker flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec
	tasksEnqueuedTotal      *prometheus.CounterVec
	tasksSentTotal          *prometheus.CounterVec
	tasksAbandonedTotal     *prometheus.CounterVec
	taskSendDuration        *prometheus.HistogramVec
	workerInflight          *prometheus.GaugeVec
	retryScheduledTotal     *prometheus.CounterVec
	invitationsExpiredTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookline",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bookline",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		tasksEnqueuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookline",
				Name:      "tasks_enqueued_total",
				Help:      "Total number of notification tasks enqueued by event type and channel.",
			},
			[]string{"event_type", "channel"},
		),
		tasksSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookline",
				Name:      "tasks_sent_total",
				Help:      "Total number of notification tasks delivered successfully.",
			},
			[]string{"channel"},
		),
		tasksAbandonedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookline",
				Name:      "tasks_abandoned_total",
				Help:      "Total number of notification tasks abandoned, by reason.",
			},
			[]string{"channel", "reason"},
		),
		taskSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bookline",
				Name:      "task_send_duration_seconds",
				Help:      "Adapter send duration in seconds grouped by channel.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"channel"},
		),
		workerInflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "bookline",
				Name:      "worker_inflight",
				Help:      "Current number of in-flight worker operations grouped by channel.",
			},
			[]string{"channel"},
		),
		retryScheduledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookline",
				Name:      "retry_scheduled_total",
				Help:      "Total number of delivery attempts scheduled for retry.",
			},
			[]string{"channel"},
		),
		invitationsExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "bookline",
				Name:      "invitations_expired_total",
				Help:      "Total number of pending invitations expired by the sweep.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.tasksEnqueuedTotal,
		m.tasksSentTotal,
		m.tasksAbandonedTotal,
		m.taskSendDuration,
		m.workerInflight,
		m.retryScheduledTotal,
		m.invitationsExpiredTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncTaskEnqueued(eventType string, channel string) {
	if m == nil {
		return
	}
	m.tasksEnqueuedTotal.WithLabelValues(strings.ToLower(strings.TrimSpace(eventType)), normalizeChannel(channel)).Inc()
}

func (m *Metrics) IncInvitationExpired() {
	if m == nil {
		return
	}
	m.invitationsExpiredTotal.Inc()
}

func (m *Metrics) IncTaskSent(channel string) {
	if m == nil {
		return
	}
	m.tasksSentTotal.WithLabelValues(normalizeChannel(channel)).Inc()
}

func (m *Metrics) IncTaskAbandoned(channel string, reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.tasksAbandonedTotal.WithLabelValues(normalizeChannel(channel), reasonLabel).Inc()
}

func (m *Metrics) ObserveTaskSendDuration(channel string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.taskSendDuration.WithLabelValues(normalizeChannel(channel)).Observe(seconds)
}

func (m *Metrics) IncWorkerInFlight(channel string) {
	if m == nil {
		return
	}
	m.workerInflight.WithLabelValues(normalizeChannel(channel)).Inc()
}

func (m *Metrics) DecWorkerInFlight(channel string) {
	if m == nil {
		return
	}
	m.workerInflight.WithLabelValues(normalizeChannel(channel)).Dec()
}

func (m *Metrics) IncRetryScheduled(channel string) {
	if m == nil {
		return
	}
	m.retryScheduledTotal.WithLabelValues(normalizeChannel(channel)).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeChannel(channel string) string {
	normalized := strings.ToLower(strings.TrimSpace(channel))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
