package courserouter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	courseservice "github.com/fairway-collective/roundsync/app/modules/course/application"
	coursehandlers "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/handlers"
	courseevents "github.com/fairway-collective/roundsync/app/shared/events/course"
	"github.com/fairway-collective/roundsync/config"
	"github.com/fairway-collective/roundsync/internal/eventbus"
	"github.com/fairway-collective/roundsync/internal/handlerwrapper"
)

// CourseRouter handles routing for course module events.
type CourseRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	config     *config.Config
	tracer     trace.Tracer
}

// NewCourseRouter creates a new CourseRouter.
func NewCourseRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	config *config.Config,
	tracer trace.Tracer,
) *CourseRouter {
	return &CourseRouter{
		logger:     logger,
		Router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		config:     config,
		tracer:     tracer,
	}
}

// Configure sets up the router with the necessary handlers and dependencies.
// Router-wide middleware is installed where the shared router is built, not
// here, so modules can share one router without stacking duplicates.
func (r *CourseRouter) Configure(routerCtx context.Context, courseService courseservice.Service) error {
	courseHandlers := coursehandlers.NewCourseHandlers(courseService, r.logger, r.tracer)

	if err := r.RegisterHandlers(routerCtx, courseHandlers); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	return nil
}

type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    handlerwrapper.ReturningMetrics
}

// registerHandler registers a pure transformation-pattern handler with typed payload.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "course." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"", // Watermill reads topic from message metadata when empty
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			deps.metrics,
			handler,
		),
	)
}

// RegisterHandlers registers event handlers using the pure transformation pattern.
func (r *CourseRouter) RegisterHandlers(ctx context.Context, handlers coursehandlers.Handlers) error {
	var metrics handlerwrapper.ReturningMetrics

	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
		metrics:    metrics,
	}

	registerHandler(deps, courseevents.CourseSyncRequestedV1, handlers.HandleSyncRequested)

	return nil
}

// Close stops the router.
func (r *CourseRouter) Close() error {
	return r.Router.Close()
}
