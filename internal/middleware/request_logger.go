package middleware

import (
	"strconv"
	"time"

	"salon-inventory/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const loggerKey = "logger"

// RequestLogger logs one line per request and records its latency. It expects
// the requestid middleware to run first.
func RequestLogger(log zerolog.Logger, m *metrics.InventoryMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqLog := log.With().
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Logger()
		c.Locals(loggerKey, reqLog)

		err := c.Next()
		if err != nil {
			// Let the app error handler write the response so the status is final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		m.ObserveRequest(c.Method(), c.Route().Path, strconv.Itoa(status), elapsed)

		event := reqLog.Info()
		if status >= fiber.StatusInternalServerError {
			event = reqLog.Error()
		}
		if userID, ok := c.Locals("user_id").(string); ok {
			event = event.Str("user_id", userID)
		}
		event.Int("status", status).Dur("duration", elapsed).Msg("request completed")
		return nil
	}
}

// Logger returns the request-scoped logger, or a no-op logger outside RequestLogger.
func Logger(c *fiber.Ctx) zerolog.Logger {
	if l, ok := c.Locals(loggerKey).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
