package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"auctionbook/internal/logger"
	"auctionbook/internal/metrics"
)

// RequestLogger logs one structured line per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := responseStatus(c, err)
		fields := map[string]any{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
		}
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			fields["request_id"] = rid
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request failed", fields)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request rejected", fields)
		default:
			logger.Info("request served", fields)
		}
		return err
	}
}

// RequestMetrics records request count and latency by matched route.
func RequestMetrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		m.ObserveRequest(c.Method(), c.Route().Path, responseStatus(c, err), time.Since(start))
		return err
	}
}

// responseStatus is the status the client will see. Errors returned up the
// chain are turned into responses by the app's error handler afterwards.
func responseStatus(c *fiber.Ctx, err error) int {
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe.Code
		}
		return fiber.StatusInternalServerError
	}
	return c.Response().StatusCode()
}
