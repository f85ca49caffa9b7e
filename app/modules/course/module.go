package course

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	courseservice "github.com/fairway-collective/roundsync/app/modules/course/application"
	coursequeue "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/queue"
	coursedb "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/repositories"
	courserouter "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/router"
	"github.com/fairway-collective/roundsync/config"
	"github.com/fairway-collective/roundsync/internal/eventbus"
	"github.com/fairway-collective/roundsync/internal/observability"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// Module represents the course module.
type Module struct {
	EventBus      eventbus.EventBus
	CourseService courseservice.Service
	QueueService  coursequeue.QueueService
	config        *config.Config
	CourseRouter  *courserouter.CourseRouter
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewCourseModule creates a new instance of the Course module.
//
// QueueService stays nil when the queue is disabled; the cache then refreshes
// only on demand and through the background pass the first read arms.
func NewCourseModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	courseDB coursedb.CourseDB,
	fetcher relay.Fetcher,
	eventBus eventbus.EventBus,
	db *bun.DB,
	router *message.Router,
	routerCtx context.Context,
) (*Module, error) {
	logger := obs.Provider.Logger
	metrics := obs.Registry.CourseMetrics
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "course.NewCourseModule called")

	courseService := courseservice.NewCourseService(
		courseDB,
		fetcher,
		eventBus,
		courseservice.RealClock{},
		logger,
		metrics,
		tracer,
	)

	courseRouter := courserouter.NewCourseRouter(logger, router, eventBus, eventBus, cfg, tracer)

	if err := courseRouter.Configure(routerCtx, courseService); err != nil {
		return nil, fmt.Errorf("failed to configure course router: %w", err)
	}

	module := &Module{
		EventBus:      eventBus,
		CourseService: courseService,
		config:        cfg,
		CourseRouter:  courseRouter,
		observability: obs,
	}

	if cfg.Queue.Enabled {
		queueService, err := coursequeue.NewService(
			ctx,
			db,
			logger,
			cfg.Postgres.DSN,
			cfg.Queue.RefreshInterval,
			metrics,
			courseService,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create course queue service: %w", err)
		}
		module.QueueService = queueService
	}

	return module, nil
}

// Run starts the course module and blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting course module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.QueueService != nil {
		if err := m.QueueService.Start(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to start course queue service", attr.Error(err))
		}
	}

	<-ctx.Done()

	if m.QueueService != nil {
		// River does not stop on context cancellation; it needs an explicit
		// Stop with its own deadline.
		stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer stopCancel()
		if err := m.QueueService.Stop(stopCtx); err != nil {
			logger.ErrorContext(stopCtx, "Failed to stop course queue service", attr.Error(err))
		}
	}

	logger.InfoContext(ctx, "Course module goroutine stopped")
}

// Close stops the course module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping course module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Course module stopped")
	return nil
}
