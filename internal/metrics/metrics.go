package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auctionbook/internal/apperrors"
)

// Metrics records HTTP traffic and auction operation outcomes.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	gatherer   prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg yields a Metrics whose
// methods do nothing.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_operations_total",
		Help: "Auction operations by name and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(requests, duration, operations)
	return &Metrics{
		requests:   requests,
		duration:   duration,
		operations: operations,
		gatherer:   reg,
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveOperation counts an auction operation, labelled by the error kind
// it ended with or "ok".
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), Outcome(err)).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	if m == nil || m.gatherer == nil {
		return func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusNotFound)
		}
	}
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

// Outcome maps err onto the outcome label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return "validation_error"
	case apperrors.KindNotFound:
		return "not_found"
	case apperrors.KindPartialWrite:
		return "partial_write"
	case apperrors.KindTransientIO:
		return "transient_io"
	default:
		return "internal_error"
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
