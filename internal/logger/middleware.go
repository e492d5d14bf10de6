package logger

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const maxLoggedUserAgent = 100

// RequestLogger logs every request under the "route" category. The log
// level follows the status class: 5xx error, 4xx warn, everything else
// info.
func RequestLogger(log *Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		userAgent := c.Get(fiber.HeaderUserAgent)
		if userAgent == "" {
			userAgent = "Unknown"
		}
		if len(userAgent) > maxLoggedUserAgent {
			userAgent = userAgent[:maxLoggedUserAgent]
		}

		level := "info"
		switch {
		case status >= fiber.StatusInternalServerError:
			level = "error"
		case status >= fiber.StatusBadRequest:
			level = "warn"
		}

		log.Route(level, fmt.Sprintf("%s %s %d", c.Method(), c.OriginalURL(), status), Fields{
			"ip":           c.IP(),
			"userAgent":    userAgent,
			"responseTime": time.Since(start).String(),
			"statusCode":   status,
		})

		return err
	}
}
