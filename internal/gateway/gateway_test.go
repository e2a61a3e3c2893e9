package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/config"
)

type countingBackend struct {
	name  string
	hits  atomic.Int64
	delay time.Duration
	srv   *httptest.Server
}

func newCountingBackend(t *testing.T, name string, delay time.Duration) *countingBackend {
	t.Helper()
	b := &countingBackend{name: name, delay: delay}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		if b.delay > 0 {
			time.Sleep(b.delay)
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(b.name + ":" + r.URL.Path))
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func newTestGateway(t *testing.T, timeout time.Duration, backends map[string]*countingBackend) *fiber.App {
	t.Helper()

	url := func(name string) string {
		if b, ok := backends[name]; ok {
			return b.srv.URL
		}
		// Unused backends point at a closed port
		return "http://127.0.0.1:1"
	}

	cfg := &config.GatewayConfig{
		RequestTimeout:  timeout,
		AuthURL:         url("auth"),
		BookingURL:      url("booking"),
		FinanceURL:      url("finance"),
		InventoryURL:    url("inventory"),
		NotificationURL: url("notification"),
		VehicleURL:      url("vehicle"),
		WorkOrderURL:    url("workorder"),
		ChatURL:         url("chat"),
	}

	router := NewRouter(BuildRoutes(cfg), timeout, zap.NewNop())
	app := fiber.New()
	SetupRoutes(app, router)
	return app
}

func TestGatewayRouting(t *testing.T) {
	workorderBackend := newCountingBackend(t, "workorder", 0)
	bookingBackend := newCountingBackend(t, "booking", 0)
	app := newTestGateway(t, 2*time.Second, map[string]*countingBackend{
		"workorder": workorderBackend,
		"booking":   bookingBackend,
	})

	t.Run("request reaches only the owning backend", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/workorder/42", nil), 5000)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "workorder:/api/workorder/42", string(body))
		assert.EqualValues(t, 1, workorderBackend.hits.Load())
		assert.EqualValues(t, 0, bookingBackend.hits.Load())
	})

	t.Run("service-center prefix routes to the booking backend", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/service-center/3", nil), 5000)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "booking:/api/service-center/3", string(body))
	})

	t.Run("unregistered prefix returns not found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/telemetry/1", nil), 5000)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("liveness endpoint returns static ok", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), 5000)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"ok"}`, string(body))
	})
}

func TestGatewayBackendFailures(t *testing.T) {
	t.Run("slow backend times out within the configured deadline", func(t *testing.T) {
		slow := newCountingBackend(t, "workorder", 2*time.Second)
		app := newTestGateway(t, 100*time.Millisecond, map[string]*countingBackend{
			"workorder": slow,
		})

		start := time.Now()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/workorder/1", nil), 10000)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
		assert.Less(t, time.Since(start), 2*time.Second, "gateway must not wait for the backend")
	})

	t.Run("unreachable backend returns bad gateway", func(t *testing.T) {
		app := newTestGateway(t, time.Second, nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/vehicle/9", nil), 5000)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}
