// Package settlement provides the collaborators that produce settlement references
// for ledger mutations.
package settlement

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"propledger/internal/domain/service"

	"github.com/pkg/errors"
)

const mockRefBytes = 32

// mockSettlement returns random transaction-hash shaped references.
type mockSettlement struct {
	logger *slog.Logger
}

// NewMockSettlement creates a settlement collaborator for development and tests.
func NewMockSettlement(logger *slog.Logger) service.Settlement {
	return &mockSettlement{logger: logger}
}

func (s *mockSettlement) Settle(ctx context.Context, req *service.SettlementRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.WithStack(err)
	}

	buf := make([]byte, mockRefBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate settlement reference")
	}
	ref := "0x" + hex.EncodeToString(buf)

	s.logger.DebugContext(ctx, "[MockSettlement] Settled",
		slog.String("kind", string(req.Kind)),
		slog.String("asset_id", req.AssetID.String()),
		slog.String("ref", ref),
	)

	return ref, nil
}
