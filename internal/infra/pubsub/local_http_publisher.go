package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	localPushTimeout  = 30 * time.Second
	localPushAttempts = 3
	localPushBackoff  = 500 * time.Millisecond
)

// localHTTPPublisher stands in for a Pub/Sub push subscription during development:
// it posts the push envelope straight to the yield worker and redelivers on 5xx,
// which is how the worker asks for a retry.
type localHTTPPublisher struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	attempts   int
	backoff    time.Duration
}

// PushMessage is the envelope Google Pub/Sub posts to push endpoints.
// The yield worker decodes the same structure.
type PushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		OrderingKey string            `json:"orderingKey,omitempty"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// NewLocalHTTPPublisher creates a new local HTTP publisher for development
func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) service.EventPublisher {
	return &localHTTPPublisher{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: localPushTimeout,
		},
		logger:   logger,
		attempts: localPushAttempts,
		backoff:  localPushBackoff,
	}
}

func newPushMessage(event *service.DistributionEvent) ([]byte, error) {
	eventData, err := json.Marshal(event)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var msg PushMessage
	msg.Subscription = "projects/local/subscriptions/distribution-sub"
	msg.Message.Data = base64.StdEncoding.EncodeToString(eventData)
	msg.Message.MessageID = event.EventID
	msg.Message.OrderingKey = orderingKey(event)
	msg.Message.PublishTime = time.Now().UTC().Format(time.RFC3339)
	msg.Message.Attributes = eventAttributes(event)

	body, err := json.Marshal(msg)

	return body, errors.WithStack(err)
}

// PublishDistributionEvent returns once the worker acknowledged the event or attempts ran out.
func (p *localHTTPPublisher) PublishDistributionEvent(ctx context.Context, event *service.DistributionEvent) error {
	body, err := newPushMessage(event)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return errors.WithStack(ctx.Err())
			case <-time.After(p.backoff * time.Duration(attempt-1)):
			}
		}

		retry, err := p.push(ctx, event, body)
		if err == nil {
			p.logger.InfoContext(ctx, "[LocalPubSub] Event delivered",
				slog.String("event_id", event.EventID),
				slog.String("type", string(event.Type)),
				slog.Int("attempt", attempt),
			)

			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		p.logger.WarnContext(ctx, "[LocalPubSub] Worker asked for redelivery",
			slog.String("event_id", event.EventID),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
	}

	return lastErr
}

// push sends one delivery; retry reports whether the worker would accept a redelivery.
func (p *localHTTPPublisher) push(ctx context.Context, event *service.DistributionEvent, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, event.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, errors.Wrap(err, "local worker unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode >= http.StatusInternalServerError,
			errors.Errorf("worker returned non-success status: %d", resp.StatusCode)
	}

	return false, nil
}

// Close releases resources (no-op for HTTP client)
func (p *localHTTPPublisher) Close() error {
	return nil
}
