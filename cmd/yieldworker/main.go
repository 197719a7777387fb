package main

import (
	"context"
	"log/slog"
	"os"

	"propledger/config"
	"propledger/internal/delivery"
	"propledger/internal/delivery/worker"
	"propledger/internal/delivery/worker/handler"
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
		injectHandler(),
		injectDelivery(),
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

// The worker only runs distributions, so it needs the yield engine and its collaborators.
func injectService() fx.Option {
	return fx.Options(
		settlement.Module,
		pubsub.Module,
		fx.Provide(
			impl.NewYieldService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewPushHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				worker.NewServer,
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
