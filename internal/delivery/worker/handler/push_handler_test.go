package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"propledger/config"
	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/domain/constants"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/service"
	ierrors "propledger/internal/errors"
	"propledger/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockYieldUC struct {
	mock.Mock
	usecase.YieldUsecase
}

func (m *mockYieldUC) HandleEvent(ctx context.Context, event *service.DistributionEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func newTestPushHandler(t *testing.T, provider, env string) (*PushHandler, *mockYieldUC) {
	t.Helper()

	cfg := &config.Config{PubSub: &config.PubSubConfig{Provider: provider}}
	cfg.Env.Env = env
	yieldUC := &mockYieldUC{}
	t.Cleanup(func() { yieldUC.AssertExpectations(t) })

	return NewPushHandler(PushHandlerParams{
		Config:  cfg,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		YieldUC: yieldUC,
	}), yieldUC
}

func pushBody(t *testing.T, event *service.DistributionEvent, attrs map[string]string) string {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var msg PubSubMessage
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.Attributes = attrs
	msg.Message.MessageID = "msg-1"
	msg.Subscription = "projects/p/subscriptions/distribution-push"

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return string(body)
}

func servePush(h *PushHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	_ = h.HandlePush(c)

	return rec
}

func TestPushHandler_HandlePush(t *testing.T) {
	requested := &service.DistributionEvent{
		EventID:   "evt-1",
		Type:      service.EventDistributionRequested,
		RequestID: "req-from-event",
	}

	tests := []struct {
		name       string
		handleErr  error
		wantStatus int
	}{
		{name: "processed", wantStatus: http.StatusOK},
		{name: "failed assets are retried", handleErr: errors.New("distribution run: 1 of 2 assets failed"), wantStatus: http.StatusServiceUnavailable},
		{name: "internal domain error is retried", handleErr: domainerrors.ErrInternalError, wantStatus: http.StatusServiceUnavailable},
		{name: "permanent failure is dropped", handleErr: ierrors.Permanent(errors.New("gateway rejected settlement")), wantStatus: http.StatusOK},
		{name: "unknown event is dropped", handleErr: domainerrors.ErrValidationFailed.WithDetails("unknown event type"), wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, yieldUC := newTestPushHandler(t, constants.PubSubProviderLocal, constants.EnvDevelop)
			yieldUC.On("HandleEvent", mock.Anything, mock.MatchedBy(func(e *service.DistributionEvent) bool {
				return e.EventID == "evt-1" && e.Type == service.EventDistributionRequested
			})).Return(tt.handleErr).Once()

			rec := servePush(h, pushBody(t, requested, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPushHandler_MalformedMessages(t *testing.T) {
	h, _ := newTestPushHandler(t, constants.PubSubProviderLocal, constants.EnvDevelop)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "data not base64", body: `{"message":{"data":"***"}}`},
		{name: "event not json", body: `{"message":{"data":"` + base64.StdEncoding.EncodeToString([]byte("nope")) + `"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := servePush(h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPushHandler_RequestIDPropagation(t *testing.T) {
	h, yieldUC := newTestPushHandler(t, constants.PubSubProviderLocal, constants.EnvDevelop)
	event := &service.DistributionEvent{EventID: "evt-2", Type: service.EventAssetDistributed, RequestID: "req-from-event"}

	yieldUC.On("HandleEvent", mock.MatchedBy(func(ctx context.Context) bool {
		return deliverycontext.GetRequestIDFromContext(ctx) == "req-from-attrs"
	}), mock.Anything).Return(nil).Once()

	rec := servePush(h, pushBody(t, event, map[string]string{"request_id": "req-from-attrs"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	yieldUC.On("HandleEvent", mock.MatchedBy(func(ctx context.Context) bool {
		return deliverycontext.GetRequestIDFromContext(ctx) == "req-from-event"
	}), mock.Anything).Return(nil).Once()

	rec = servePush(h, pushBody(t, event, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPushHandler_VerifiesGooglePushAuth(t *testing.T) {
	h, _ := newTestPushHandler(t, constants.PubSubProviderGoogle, "production")
	require.True(t, h.verifyPushAuth)

	h.verifyToken = func(*http.Request) error { return errors.New("bad token") }

	rec := servePush(h, pushBody(t, &service.DistributionEvent{EventID: "evt-3", Type: service.EventDistributionRequested}, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyPubSubToken_RejectsMissingBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/push", nil)
	require.Error(t, verifyPubSubToken(req))

	req.Header.Set("Authorization", "Basic abc")
	require.Error(t, verifyPubSubToken(req))
}
