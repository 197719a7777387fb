package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"propledger/internal/domain/service"
	"propledger/internal/errors"
)

const (
	defaultChainTimeout = 15 * time.Second
	maxGatewayBodySize  = 1 << 16
)

// chainSettlement posts each settlement to an HTTP gateway that submits it on chain
// and answers with the transaction hash.
type chainSettlement struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type chainResponse struct {
	TxHash string `json:"txHash"`
	Error  string `json:"error,omitempty"`
}

// NewChainSettlement creates a settlement collaborator backed by a chain gateway.
func NewChainSettlement(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) service.Settlement {
	if timeout <= 0 {
		timeout = defaultChainTimeout
	}

	return &chainSettlement{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (s *chainSettlement) Settle(ctx context.Context, req *service.SettlementRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.WithStack(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.WithStack(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "settlement gateway unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayBodySize))
	if err != nil {
		return "", errors.Wrap(err, "failed to read settlement gateway response")
	}

	var decoded chainResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return "", errors.Wrapf(err, "invalid settlement gateway response (status %d)", resp.StatusCode)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := errors.Errorf("settlement gateway returned status %d: %s", resp.StatusCode, decoded.Error)
		if rejectedByGateway(resp.StatusCode) {
			return "", errors.Permanent(err)
		}

		return "", err
	}
	if decoded.TxHash == "" {
		return "", errors.New("settlement gateway returned an empty transaction hash")
	}

	s.logger.InfoContext(ctx, "[ChainSettlement] Settled",
		slog.String("kind", string(req.Kind)),
		slog.String("asset_id", req.AssetID.String()),
		slog.String("tx_hash", decoded.TxHash),
	)

	return decoded.TxHash, nil
}

// rejectedByGateway reports whether resubmitting the same request cannot succeed.
func rejectedByGateway(status int) bool {
	return status >= 400 && status < 500 &&
		status != http.StatusRequestTimeout && status != http.StatusTooManyRequests
}
