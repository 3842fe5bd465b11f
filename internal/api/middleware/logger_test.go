package middleware

import (
	"bytes"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/peakinvestigator/internal/logger"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLevel("debug")
	t.Cleanup(func() {
		logger.SetLevel("info")
		logger.SetOutput(os.Stderr)
	})

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(Logger())
	app.Put("/api/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTeapot).SendString("{}")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPut, "/api/", bytes.NewBufferString("Code=s3cret")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	out := buf.String()
	assert.Contains(t, out, "path=/api/")
	assert.Contains(t, out, "status=418")
	assert.NotContains(t, out, "s3cret")
}
