package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RequestLogger writes one structured log event per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// let the app error handler set the status before we read it
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		}

		event = event.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.IP())

		if reqID := c.GetRespHeader(fiber.HeaderXRequestID); reqID != "" {
			event = event.Str("request_id", reqID)
		}
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			event = event.Str("user_agent", ua)
		}

		event.Msg("http_request")
		return nil
	}
}
