package main

import (
	"context"
	"log/slog"
	"os"

	"propledger/config"
	"propledger/internal/delivery"
	"propledger/internal/delivery/api"
	"propledger/internal/delivery/api/middleware"
	"propledger/internal/delivery/api/router/handler"
	"propledger/internal/delivery/scheduler"
	"propledger/internal/infra/auth"
	"propledger/internal/infra/cache"
	logs "propledger/internal/infra/log"
	"propledger/internal/infra/persistence"
	"propledger/internal/infra/pubsub"
	"propledger/internal/infra/settlement"
	"propledger/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
		),
		persistence.Module,
		cache.Module,
	)
}

func injectService() fx.Option {
	return fx.Options(
		settlement.Module,
		pubsub.Module,
		fx.Provide(
			auth.NewJWTService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewUserService,
			impl.NewAssetService,
			impl.NewOwnershipService,
			impl.NewWalletService,
			impl.NewYieldService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewUserHandler,
			handler.NewAssetHandler,
			handler.NewTradeHandler,
			handler.NewWalletHandler,
			handler.NewYieldHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				scheduler.NewScheduler,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
