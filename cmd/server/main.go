package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailpulse/retailpulse/internal/api"
	v1 "github.com/retailpulse/retailpulse/internal/api/v1"
	"github.com/retailpulse/retailpulse/internal/cache"
	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/postgres"
	"github.com/retailpulse/retailpulse/internal/repository"
	"github.com/retailpulse/retailpulse/internal/scheduler"
	"github.com/retailpulse/retailpulse/internal/sentry"
	"github.com/retailpulse/retailpulse/internal/service"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/retailpulse/retailpulse/internal/validator"
	"go.uber.org/fx"
)

func init() {
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,
			provideCache,
			postgres.NewDB,
			repository.NewSnapshotSource,
		),
		sentry.Module(),

		fx.Provide(
			service.NewServiceParams,
			service.NewPipelineService,
			service.NewRunCache,
			scheduler.NewPipelineScheduler,
		),

		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			closeDB,
			startServer,
		),
	)
	app.Run()
}

func provideCache(cfg *config.Configuration, logger *logger.Logger) cache.Cache {
	return cache.NewInMemoryCache(cfg, logger)
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	pipelineService service.PipelineService,
	runs *service.RunCache,
) api.Handlers {
	return api.Handlers{
		Health:    v1.NewHealthHandler(runs, logger),
		Pipeline:  v1.NewPipelineHandler(pipelineService, runs, logger),
		Promotion: v1.NewPromotionHandler(pipelineService, cfg, logger),
	}
}

func closeDB(lc fx.Lifecycle, db *postgres.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	pipelineScheduler *scheduler.PipelineScheduler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		if cfg.Scheduler.Enabled {
			startScheduler(lc, pipelineScheduler, log)
		}
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeScheduler:
		startScheduler(lc, pipelineScheduler, log)
	default:
		log.Fatalf("unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down API server")
			return srv.Shutdown(ctx)
		},
	})
}

func startScheduler(
	lc fx.Lifecycle,
	pipelineScheduler *scheduler.PipelineScheduler,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return pipelineScheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down scheduler")
			return pipelineScheduler.Stop(ctx)
		},
	})
}
