// Package middleware holds Fiber handlers shared by HTTP surfaces
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/peakinvestigator/internal/logger"
)

// Logger returns a middleware that logs HTTP requests at debug level.
// Request bodies carry credentials and are never logged.
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Continue chain
		err := c.Next()

		logger.DebugWithFields("request", map[string]interface{}{
			"status":  c.Response().StatusCode(),
			"latency": time.Since(start),
			"ip":      c.IP(),
			"method":  c.Method(),
			"path":    c.Path(),
		})
		return err
	}
}
