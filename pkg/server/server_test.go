package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montecarlo/pkg/config"
	"montecarlo/pkg/logger"
)

func init() {
	logger.Init("error")
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "test-app", Version: "test"},
		HTTP: config.HTTPConfig{Port: 0, ShutdownTimeout: time.Second},
	}
}

func TestServer_Handler(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	srv := New(testConfig(), WithMiddleware(mw("outer"), mw("inner")))
	srv.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong")) //nolint:errcheck // test handler
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestServer_SwaggerAndMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.Swagger.Enabled = true
	cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}

	srv := New(cfg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "IntegrationService")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Run(t *testing.T) {
	srv := New(testConfig())
	srv.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong")) //nolint:errcheck // test handler
	})

	var closed []string
	srv.OnShutdown("first", func(context.Context) error {
		closed = append(closed, "first")
		return nil
	})
	srv.OnShutdown("second", func(context.Context) error {
		closed = append(closed, "second")
		return errors.New("already closed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/ping", srv.Addr()))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "second: already closed")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"second", "first"}, closed)
}
