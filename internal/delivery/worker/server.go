package worker

import (
	"context"
	"log/slog"
	"net/http"

	"propledger/config"
	"propledger/internal/delivery"
	"propledger/internal/delivery/middleware"
	"propledger/internal/delivery/worker/handler"
	"propledger/internal/domain/lifecycle"
	"propledger/internal/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type workerServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
}

// ServerParams holds dependencies for the worker server
type ServerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	PushHandler *handler.PushHandler
}

// NewServer creates the yield worker: one Pub/Sub push endpoint that runs distributions.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	e := middleware.NewEcho(params.Cfg, params.Logger)
	registerRoutes(e, params.Cfg, params.PushHandler)

	srv := &workerServer{
		cfg:    params.Cfg,
		logger: params.Logger,
		server: e,
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

func registerRoutes(e *echo.Echo, cfg *config.Config, push *handler.PushHandler) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": cfg.Env.ServiceName,
			"role":    "yield-worker",
		})
	})

	e.POST("/push", push.HandlePush)
}

// Serve starts the worker HTTP server
func (s *workerServer) Serve(_ context.Context) error {
	return middleware.ServeH2C(s.server, s.cfg, s.logger, "yield-worker")
}

// stop gracefully shuts down the worker server
func (s *workerServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down yield worker HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
