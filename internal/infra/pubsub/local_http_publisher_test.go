package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"propledger/config"
	"propledger/internal/domain/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalHTTPPublisherSendsPushEnvelope(t *testing.T) {
	var received PushMessage
	var requestIDHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestIDHeader = r.Header.Get("X-Request-Id")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, discardLogger())
	event := &service.DistributionEvent{
		RequestID:   "req-1",
		EventID:     "evt-1",
		Type:        service.EventAssetDistributed,
		AssetID:     "asset-1",
		HolderCount: 2,
		TotalPaid:   decimal.RequireFromString("100000.00"),
		Retained:    decimal.Zero,
		OccurredAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, publisher.PublishDistributionEvent(context.Background(), event))

	assert.Equal(t, "req-1", requestIDHeader)
	assert.Equal(t, "evt-1", received.Message.MessageID)
	assert.Equal(t, map[string]string{
		"event_id":   "evt-1",
		"type":       "asset.distributed",
		"asset_id":   "asset-1",
		"request_id": "req-1",
	}, received.Message.Attributes)

	raw, err := base64.StdEncoding.DecodeString(received.Message.Data)
	require.NoError(t, err)

	var decoded service.DistributionEvent
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, event.Type, decoded.Type)
	assert.True(t, decoded.TotalPaid.Equal(event.TotalPaid))
}

func newFastPublisher(endpoint string) *localHTTPPublisher {
	p := NewLocalHTTPPublisher(endpoint, discardLogger()).(*localHTTPPublisher)
	p.backoff = time.Millisecond

	return p
}

func TestLocalHTTPPublisherRedelivers(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   string
	}{
		{name: "retry then ack", statuses: []int{http.StatusServiceUnavailable, http.StatusOK}, wantCalls: 2},
		{name: "gives up after attempts", statuses: []int{503, 503, 503, 503}, wantCalls: localPushAttempts, wantErr: "503"},
		{name: "bad request is final", statuses: []int{http.StatusBadRequest, http.StatusOK}, wantCalls: 1, wantErr: "400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := calls.Add(1)
				w.WriteHeader(tt.statuses[n-1])
			}))
			defer server.Close()

			err := newFastPublisher(server.URL).PublishDistributionEvent(context.Background(), &service.DistributionEvent{
				EventID: "evt-2",
				Type:    service.EventDistributionRequested,
			})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestLocalHTTPPublisherSetsOrderingKey(t *testing.T) {
	var received PushMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	err := newFastPublisher(server.URL).PublishDistributionEvent(context.Background(), &service.DistributionEvent{
		EventID: "evt-3",
		Type:    service.EventAssetDistributed,
		AssetID: "asset-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "asset-9", received.Message.OrderingKey)
}

func TestNewEventPublisher(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.PubSubConfig
		wantErr string
	}{
		{name: "unset falls back to noop"},
		{name: "empty provider falls back to noop", cfg: &config.PubSubConfig{}},
		{name: "local without endpoint", cfg: &config.PubSubConfig{Provider: "local"}, wantErr: "local endpoint is required"},
		{name: "local", cfg: &config.PubSubConfig{Provider: "local", LocalEndpoint: "http://localhost:8081/push"}},
		{name: "google without project", cfg: &config.PubSubConfig{Provider: "google"}, wantErr: "project ID is required"},
		{name: "google without topic", cfg: &config.PubSubConfig{Provider: "google", ProjectID: "ledger"}, wantErr: "topic ID is required"},
		{name: "unknown", cfg: &config.PubSubConfig{Provider: "kafka"}, wantErr: "unknown pubsub provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher, err := NewEventPublisher(PublisherParams{
				Lc:     fxtest.NewLifecycle(t),
				Ctx:    context.Background(),
				Config: &config.Config{PubSub: tt.cfg},
				Logger: discardLogger(),
			})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			assert.NotNil(t, publisher)
		})
	}
}

func TestNoopPublisherAcceptsEvents(t *testing.T) {
	publisher, err := NewEventPublisher(PublisherParams{
		Lc:     fxtest.NewLifecycle(t),
		Ctx:    context.Background(),
		Config: &config.Config{},
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	assert.NoError(t, publisher.PublishDistributionEvent(context.Background(), &service.DistributionEvent{EventID: "evt"}))
	assert.NoError(t, publisher.Close())
}

func TestOrderingKey(t *testing.T) {
	assert.Equal(t, "asset-1", orderingKey(&service.DistributionEvent{Type: service.EventAssetDistributed, AssetID: "asset-1"}))
	assert.Empty(t, orderingKey(&service.DistributionEvent{Type: service.EventDistributionRequested, AssetID: "asset-1"}))
}
