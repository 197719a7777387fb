// Package delivery holds the inbound adapters that drive the ledger: the API server,
// the Pub/Sub push worker and the distribution scheduler.
package delivery

import "context"

// Delivery is a long-running inbound adapter started by the fx app.
type Delivery interface {
	Serve(ctx context.Context) error
}
