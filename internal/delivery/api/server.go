package api

import (
	"context"
	"log/slog"

	"propledger/config"
	"propledger/internal/delivery"
	apimiddleware "propledger/internal/delivery/api/middleware"
	"propledger/internal/delivery/api/router"
	"propledger/internal/delivery/api/validator"
	"propledger/internal/delivery/middleware"
	"propledger/internal/domain/lifecycle"
	"propledger/internal/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type apiServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
}

// ServerParams holds dependencies for HTTP server, injected by Fx.
type ServerParams struct {
	fx.In

	Lc           fx.Lifecycle
	Cfg          *config.Config
	Logger       *slog.Logger
	RouterParams router.RouterParams
}

// NewServer builds the ledger API: investor, builder and admin routes behind JWT auth.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	e := newEcho(params.Cfg, params.Logger)

	r := router.NewRouter(params.RouterParams)
	r.RegisterRoutes(e)

	srv := &apiServer{
		cfg:    params.Cfg,
		logger: params.Logger,
		server: e,
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// newEcho adds the API-only pieces to the shared stack: CORS for trade headers,
// JSON error envelopes and request validation.
func newEcho(cfg *config.Config, logger *slog.Logger) *echo.Echo {
	e := middleware.NewEcho(cfg, logger)
	e.Use(middleware.CORS())

	errorMiddleware := apimiddleware.NewErrorMiddleware(logger)
	e.HTTPErrorHandler = errorMiddleware.HandleHTTPError
	e.Validator = validator.New()

	return e
}

func (s *apiServer) Serve(_ context.Context) error {
	return middleware.ServeH2C(s.server, s.cfg, s.logger, "api")
}

func (s *apiServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down API HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
