package pubsub

import "propledger/internal/domain/service"

// eventAttributes are the message attributes subscribers filter and trace on.
func eventAttributes(event *service.DistributionEvent) map[string]string {
	attributes := map[string]string{
		"event_id": event.EventID,
		"type":     string(event.Type),
	}
	if event.AssetID != "" {
		attributes["asset_id"] = event.AssetID
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}
