package settlement

import (
	"log/slog"

	"propledger/config"
	"propledger/internal/domain/constants"
	"propledger/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params holds dependencies for the settlement collaborator, injected by Fx
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// New selects the settlement collaborator from configuration. The mock provider is the default.
func New(params Params) (service.Settlement, error) {
	cfg := params.Config.Settlement
	logger := params.Logger

	if cfg == nil || cfg.Provider == "" || cfg.Provider == constants.SettlementProviderMock {
		if params.Config.Env.Env == constants.EnvProduction {
			logger.Warn("Mock settlement in production: references are not backed by a chain")
		}

		return NewMockSettlement(logger), nil
	}

	switch cfg.Provider {
	case constants.SettlementProviderChain:
		if cfg.Endpoint == "" {
			return nil, errors.New("endpoint is required for chain settlement")
		}
		logger.Info("Using chain settlement gateway", slog.String("endpoint", cfg.Endpoint))

		return NewChainSettlement(cfg.Endpoint, cfg.APIKey, cfg.Timeout, logger), nil
	default:
		return nil, errors.Errorf("unknown settlement provider: %s", cfg.Provider)
	}
}

// Module provides the settlement FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(New),
)
