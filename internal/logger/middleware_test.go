package logger

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedApp(t *testing.T) (*fiber.App, *captureEmitter) {
	t.Helper()

	log := New(io.Discard, "info", "json")
	emitter := &captureEmitter{}
	log.SetEmitter(emitter)

	app := fiber.New()
	app.Use(RequestLogger(log))

	return app, emitter
}

func lastEntry(t *testing.T, emitter *captureEmitter) LogEntry {
	t.Helper()
	require.NotEmpty(t, emitter.entries)
	return emitter.entries[len(emitter.entries)-1]
}

func TestRequestLogger_StatusClassLevels(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"2xx logged info", fiber.StatusOK, "INFO"},
		{"4xx logged warn", fiber.StatusNotFound, "WARN"},
		{"5xx logged error", fiber.StatusInternalServerError, "ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, emitter := newLoggedApp(t)
			app.Get("/probe", func(c *fiber.Ctx) error {
				return c.SendStatus(tc.status)
			})

			_, err := app.Test(httptest.NewRequest(http.MethodGet, "/probe", nil))
			require.NoError(t, err)

			e := lastEntry(t, emitter)
			assert.Equal(t, tc.wantLevel, e.Level)
			assert.Equal(t, CategoryRoute, e.Category)
			assert.Equal(t, tc.status, e.Context["statusCode"])
		})
	}
}

func TestRequestLogger_HandlerErrorStatus(t *testing.T) {
	app, emitter := newLoggedApp(t)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.ErrServiceUnavailable
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)

	e := lastEntry(t, emitter)
	assert.Equal(t, "ERROR", e.Level)
	assert.Equal(t, fiber.StatusServiceUnavailable, e.Context["statusCode"])
}

func TestRequestLogger_MessageAndFields(t *testing.T) {
	app, emitter := newLoggedApp(t)
	app.Get("/probe", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe?q=1", nil)
	req.Header.Set(fiber.HeaderUserAgent, "test-agent")

	_, err := app.Test(req)
	require.NoError(t, err)

	e := lastEntry(t, emitter)
	assert.Equal(t, "GET /probe?q=1 200", e.Message)
	assert.Equal(t, "test-agent", e.Context["userAgent"])
	assert.NotEmpty(t, e.Context["ip"])
	assert.NotEmpty(t, e.Context["responseTime"])
}

func TestRequestLogger_UserAgentHandling(t *testing.T) {
	t.Run("missing becomes Unknown", func(t *testing.T) {
		app, emitter := newLoggedApp(t)
		app.Get("/probe", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Del(fiber.HeaderUserAgent)

		_, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, "Unknown", lastEntry(t, emitter).Context["userAgent"])
	})

	t.Run("oversized is truncated", func(t *testing.T) {
		app, emitter := newLoggedApp(t)
		app.Get("/probe", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set(fiber.HeaderUserAgent, strings.Repeat("x", 300))

		_, err := app.Test(req)
		require.NoError(t, err)

		ua, ok := lastEntry(t, emitter).Context["userAgent"].(string)
		require.True(t, ok)
		assert.Len(t, ua, maxLoggedUserAgent)
	})
}
