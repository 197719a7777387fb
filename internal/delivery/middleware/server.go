package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"propledger/config"
	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/net/http2"
)

// NewEcho builds the echo instance shared by the API and the push worker:
// timeouts from config, then recover, request scope, request log and body limit.
func NewEcho(cfg *config.Config, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.HTTP.Timeouts.ReadTimeout
	e.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	e.Server.WriteTimeout = cfg.HTTP.Timeouts.WriteTimeout
	e.Server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout

	// Recover first so panics in later middleware are caught.
	e.Use(echomiddleware.Recover())

	// Request scope must exist before the request log is written.
	e.Use(NewRequestIDMiddleware(logger).Process)
	e.Use(NewLoggerMiddleware(logger, cfg).Handle)

	if cfg.HTTP.MaxRequestBodySize != "" {
		e.Use(echomiddleware.BodyLimit(cfg.HTTP.MaxRequestBodySize))
	}

	return e
}

// CORS lets browser clients send idempotency keys and read the request id.
func CORS() echo.MiddlewareFunc {
	return echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			deliverycontext.HeaderXRequestID,
			deliverycontext.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{deliverycontext.HeaderXRequestID},
	})
}

// ServeH2C listens on all interfaces at port until the server is shut down.
func ServeH2C(e *echo.Echo, cfg *config.Config, logger *slog.Logger, name string) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(cfg.HTTP.Port))
	logger.Info("Starting HTTP server",
		slog.String("server", name),
		slog.String("service", cfg.Env.ServiceName),
		slog.String("host_port", hostPort),
	)

	h2Server := &http2.Server{
		IdleTimeout: cfg.HTTP.Timeouts.IdleTimeout,
	}
	if err := e.StartH2CServer(hostPort, h2Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}

	return nil
}
