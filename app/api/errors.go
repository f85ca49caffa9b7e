package api

import (
	"context"
	"errors"
	"net/http"

	coursedb "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/repositories"
	"github.com/fairway-collective/roundsync/app/modules/invite"
	roundservice "github.com/fairway-collective/roundsync/app/modules/round/application"
	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// statusForError maps the service error taxonomy onto HTTP status codes.
// Storage failures and anything unrecognized land on 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, invite.ErrInvalidInvite),
		errors.Is(err, roundservice.ErrInvalidRoundInput):
		return http.StatusBadRequest
	case errors.Is(err, relay.ErrEventNotFound),
		errors.Is(err, rounddb.ErrNotFound),
		errors.Is(err, coursedb.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, roundservice.ErrWrongEventKind):
		return http.StatusUnprocessableEntity
	case errors.Is(err, roundservice.ErrSigningUnavailable):
		return http.StatusServiceUnavailable
	case relay.IsTransport(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
