package worker

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"propledger/config"
	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/delivery/middleware"
	"propledger/internal/delivery/worker/handler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Env.ServiceName = "propledger"
	logger := slog.New(slog.DiscardHandler)

	e := middleware.NewEcho(cfg, logger)
	registerRoutes(e, cfg, handler.NewPushHandler(handler.PushHandlerParams{Config: cfg, Logger: logger}))

	return e
}

func TestWorkerHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestWorker(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "propledger", body["service"])
	assert.Equal(t, "yield-worker", body["role"])
}

func TestWorkerPush_RejectsMalformedEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(`{"message":{"data":"%%%"}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestWorker(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
