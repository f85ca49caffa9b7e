package coursehandlers

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	courseservice "github.com/fairway-collective/roundsync/app/modules/course/application"
)

// CourseHandlers implements the Handlers interface for course events.
type CourseHandlers struct {
	service courseservice.Service
	logger  *slog.Logger
}

// NewCourseHandlers creates a new CourseHandlers instance.
func NewCourseHandlers(service courseservice.Service, logger *slog.Logger, tracer trace.Tracer) *CourseHandlers {
	return &CourseHandlers{
		service: service,
		logger:  logger,
	}
}
