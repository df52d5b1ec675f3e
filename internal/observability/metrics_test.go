package observability

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsWorkerCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncTaskEnqueued("booking.created", "EMAIL")
	metrics.IncTaskSent("EMAIL")
	metrics.IncTaskAbandoned("email", "permanent_error")
	metrics.ObserveTaskSendDuration("email", 120*time.Millisecond)
	metrics.IncWorkerInFlight("email")
	metrics.DecWorkerInFlight("email")
	metrics.IncRetryScheduled("email")
	metrics.IncInvitationExpired()

	if got := testutil.ToFloat64(metrics.tasksEnqueuedTotal.WithLabelValues("booking.created", "email")); got != 1 {
		t.Fatalf("tasks_enqueued_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.tasksSentTotal.WithLabelValues("email")); got != 1 {
		t.Fatalf("tasks_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.tasksAbandonedTotal.WithLabelValues("email", "permanent_error")); got != 1 {
		t.Fatalf("tasks_abandoned_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.retryScheduledTotal.WithLabelValues("email")); got != 1 {
		t.Fatalf("retry_scheduled_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.workerInflight.WithLabelValues("email")); got != 0 {
		t.Fatalf("worker_inflight = %v, want 0", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsErrorStatus(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	_, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}
