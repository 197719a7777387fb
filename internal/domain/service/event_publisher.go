package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DistributionEventType distinguishes trigger requests from completion notices.
type DistributionEventType string

const (
	// EventDistributionRequested asks a worker to run the yield distribution.
	EventDistributionRequested DistributionEventType = "distribution.requested"
	// EventAssetDistributed announces that an asset's pending income was paid out.
	EventAssetDistributed DistributionEventType = "asset.distributed"
)

// DistributionEvent is the message carried over the event bus.
type DistributionEvent struct {
	RequestID   string                `json:"request_id,omitempty"` // For distributed tracing
	EventID     string                `json:"event_id"`
	Type        DistributionEventType `json:"type"`
	AssetID     string                `json:"asset_id,omitempty"`
	IncomeIDs   []string              `json:"income_ids,omitempty"`
	HolderCount int                   `json:"holder_count,omitempty"`
	TotalPaid   decimal.Decimal       `json:"total_paid"`
	Retained    decimal.Decimal       `json:"retained"`
	OccurredAt  time.Time             `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishDistributionEvent publishes a distribution event for async processing
	PublishDistributionEvent(ctx context.Context, event *DistributionEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
