// Package app wires configuration, storage, transport, and the feature
// modules into one runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/fairway-collective/roundsync/app/api"
	"github.com/fairway-collective/roundsync/app/modules/course"
	"github.com/fairway-collective/roundsync/app/modules/round"
	"github.com/fairway-collective/roundsync/config"
	"github.com/fairway-collective/roundsync/internal/db/bundb"
	"github.com/fairway-collective/roundsync/internal/eventbus"
	"github.com/fairway-collective/roundsync/internal/identity"
	"github.com/fairway-collective/roundsync/internal/observability"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// App holds the assembled service.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bundb.DBService
	EventBus      eventbus.EventBus
	Router        *message.Router
	RoundModule   *round.Module
	CourseModule  *course.Module
	APIServer     *api.Server

	redisClient   *redis.Client
	metricsServer *http.Server
	routerCtx     context.Context
	routerCancel  context.CancelFunc
}

// Initialize builds the shared infrastructure and the feature modules.
// Nothing starts running until Run.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, obs observability.Observability) error {
	app.Config = cfg
	app.Observability = obs
	logger := obs.Provider.Logger

	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database service: %w", err)
	}
	app.DB = dbService

	// JetStream when NATS is configured, the in-process bus otherwise.
	if cfg.NATS.Enabled {
		bus, err := eventbus.NewJetStreamBus(eventbus.NATSConfig{
			URL:      cfg.NATS.URL,
			NKeySeed: cfg.NATS.NKeySeed,
			Streams:  []string{"round", "course"},
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
		app.EventBus = bus
	} else {
		app.EventBus = eventbus.NewInMemoryBus(logger)
	}

	var eventCache relay.EventCache
	if cfg.Redis.Enabled {
		app.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := app.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		eventCache = relay.NewRedisEventCache(app.redisClient, cfg.Redis.EventTTL)
	} else {
		eventCache = relay.NewMemoryEventCache()
	}

	relayClient, err := relay.NewPoolClient(ctx, config.ToRelayConfig(cfg), eventCache, logger, obs.Registry.RelayMetrics, obs.Registry.Tracer)
	if err != nil {
		return fmt.Errorf("failed to create relay client: %w", err)
	}

	ident, err := identity.NewStaticIdentity(config.ToIdentityConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to load identity: %w", err)
	}
	var signer identity.Signer
	if ident.CanSign() {
		signer = ident
	} else {
		logger.InfoContext(ctx, "No secret key configured, running in join-only mode")
	}

	// One shared watermill router. Middleware is installed here once; the
	// module routers only register handlers on it.
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)
	metricsBuilder := metrics.NewPrometheusMetricsBuilder(obs.Registry.Prometheus, "roundsync", "watermill")
	metricsBuilder.AddPrometheusRouterMetrics(router)
	app.Router = router

	// The router outlives the init context; shutdown stops it explicitly so
	// in-flight handlers drain onto a live bus.
	app.routerCtx, app.routerCancel = context.WithCancel(context.Background())

	roundModule, err := round.NewRoundModule(ctx, cfg, obs, dbService.RoundDB, relayClient, relayClient, ident, signer, app.EventBus, router, app.routerCtx)
	if err != nil {
		return fmt.Errorf("failed to initialize round module: %w", err)
	}
	app.RoundModule = roundModule

	courseModule, err := course.NewCourseModule(ctx, cfg, obs, dbService.CourseDB, relayClient, app.EventBus, dbService.GetDB(), router, app.routerCtx)
	if err != nil {
		return fmt.Errorf("failed to initialize course module: %w", err)
	}
	app.CourseModule = courseModule

	healthChecks := map[string]api.HealthCheck{
		"postgres": func(ctx context.Context) error {
			return dbService.GetDB().PingContext(ctx)
		},
	}
	if courseModule.QueueService != nil {
		healthChecks["queue"] = courseModule.QueueService.HealthCheck
	}
	app.APIServer = api.NewServer(cfg, obs, roundModule.RoundService, courseModule.CourseService, courseModule.QueueService, healthChecks)

	if addr := cfg.Observability.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(obs.Registry.Prometheus, promhttp.HandlerOpts{}))
		app.metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return nil
}

// Run starts the modules, the message router, and the HTTP listeners, then
// blocks until ctx is canceled or a listener fails. It tears the service
// down in reverse start order before returning.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Provider.Logger
	logger.InfoContext(ctx, "Starting service")

	var wg sync.WaitGroup
	wg.Add(1)
	go app.RoundModule.Run(ctx, &wg)
	wg.Add(1)
	go app.CourseModule.Run(ctx, &wg)

	routerErr := make(chan error, 1)
	go func() {
		routerErr <- app.Router.Run(app.routerCtx)
	}()

	// Handlers must be subscribed before traffic is accepted.
	select {
	case <-app.Router.Running():
	case err := <-routerErr:
		return fmt.Errorf("message router failed to start: %w", err)
	}

	if app.metricsServer != nil {
		go func() {
			logger.Info("Starting metrics server", attr.String("addr", app.metricsServer.Addr))
			if err := app.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", attr.Error(err))
			}
		}()
	}

	apiErr := make(chan error, 1)
	go func() {
		apiErr <- app.APIServer.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-apiErr:
		if err != nil {
			logger.Error("API server failed", attr.Error(err))
			runErr = err
		}
	case err := <-routerErr:
		if err != nil {
			logger.Error("Message router failed", attr.Error(err))
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.APIServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error stopping API server", attr.Error(err))
	}
	if app.metricsServer != nil {
		if err := app.metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error stopping metrics server", attr.Error(err))
		}
	}

	// The course module stops the refresh scheduler inside its Run exit
	// path, so the modules come down before the router.
	if err := app.RoundModule.Close(); err != nil {
		logger.Error("Error stopping round module", attr.Error(err))
	}
	if err := app.CourseModule.Close(); err != nil {
		logger.Error("Error stopping course module", attr.Error(err))
	}
	wg.Wait()

	app.routerCancel()
	if err := app.Router.Close(); err != nil {
		logger.Error("Error stopping message router", attr.Error(err))
	}

	return runErr
}

// Close releases the shared infrastructure. Call it after Run returns.
func (app *App) Close() {
	logger := app.Observability.Provider.Logger

	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			logger.Error("Error closing event bus", attr.Error(err))
		}
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			logger.Error("Error closing redis client", attr.Error(err))
		}
	}
	if app.DB != nil {
		if err := app.DB.GetDB().Close(); err != nil {
			logger.Error("Error closing database", attr.Error(err))
		}
	}

	logger.Info("Service stopped")
}
