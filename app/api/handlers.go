package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	courseservice "github.com/fairway-collective/roundsync/app/modules/course/application"
	coursequeue "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/queue"
	roundservice "github.com/fairway-collective/roundsync/app/modules/round/application"
	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// Handlers serves the REST surface over the round and course services.
type Handlers struct {
	logger  *slog.Logger
	rounds  roundservice.Service
	courses courseservice.Service
	queue   coursequeue.QueueService
}

// NewHandlers creates the API handlers. queue may be nil when the scheduled
// refresh is disabled.
func NewHandlers(
	logger *slog.Logger,
	rounds roundservice.Service,
	courses courseservice.Service,
	queue coursequeue.QueueService,
) *Handlers {
	return &Handlers{
		logger:  logger,
		rounds:  rounds,
		courses: courses,
		queue:   queue,
	}
}

type joinRoundRequest struct {
	Invite string `json:"invite"`
}

// HandleJoinRound joins the round behind an invite code. Joining a round the
// caller already holds returns the existing round with already_joined set.
func (h *Handlers) HandleJoinRound(w http.ResponseWriter, r *http.Request) {
	var req joinRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.rounds.JoinFromInvite(r.Context(), req.Invite)
	if err != nil {
		h.respondFailure(w, r, result, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result.Success)
}

// HandleCreateRound creates a round, publishes its initiation event, and
// returns the shareable invite encodings.
func (h *Handlers) HandleCreateRound(w http.ResponseWriter, r *http.Request) {
	var req roundevents.RoundCreateRequestedPayloadV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.rounds.CreateAndShare(r.Context(), req)
	if err != nil {
		h.respondFailure(w, r, result, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, result.Success)
}

// HandleGetRound retrieves a specific round by ID.
func (h *Handlers) HandleGetRound(w http.ResponseWriter, r *http.Request) {
	roundIDStr := chi.URLParam(r, "roundID")
	roundID, err := strconv.ParseInt(roundIDStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid round ID", http.StatusBadRequest)
		return
	}

	result, err := h.rounds.GetRound(r.Context(), sharedtypes.RoundID(roundID))
	if err != nil {
		h.respondFailure(w, r, result, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result.Success)
}

// HandleListRounds retrieves all rounds, newest first.
func (h *Handlers) HandleListRounds(w http.ResponseWriter, r *http.Request) {
	result, err := h.rounds.ListRounds(r.Context())
	if err != nil {
		h.respondFailure(w, r, result, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result.Success)
}

// HandleListCourses returns the cached course list without blocking on the
// network.
func (h *Handlers) HandleListCourses(w http.ResponseWriter, r *http.Request) {
	result, err := h.courses.LoadIfNeeded(r.Context())
	if err != nil {
		h.respondFailure(w, r, result, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result.Success)
}

// HandleRefreshCourses reconciles the course cache against the relays and
// returns the merged list. When the fetch fails, the failure body carries the
// last-known-good list.
func (h *Handlers) HandleRefreshCourses(w http.ResponseWriter, r *http.Request) {
	result, err := h.courses.Refresh(r.Context())
	if err != nil {
		h.respondFailure(w, r, result, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result.Success)
}

// HandlePendingSyncJobs returns the refresh jobs the scheduler has not
// finished yet.
func (h *Handlers) HandlePendingSyncJobs(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		http.Error(w, "scheduled refresh is disabled", http.StatusServiceUnavailable)
		return
	}

	jobs, err := h.queue.PendingJobs(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list pending sync jobs", attr.Error(err))
		http.Error(w, "failed to list pending jobs", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusOK, jobs)
}

// respondFailure writes the failure outcome when the service produced one,
// otherwise a bare error body.
func (h *Handlers) respondFailure(w http.ResponseWriter, r *http.Request, result results.OperationResult, err error) {
	status := statusForError(err)
	h.logger.WarnContext(r.Context(), "Request failed",
		attr.String("path", r.URL.Path),
		attr.Int("status", status),
		attr.Error(err),
	)

	if result.Failure != nil {
		h.respondJSON(w, status, result.Failure)
		return
	}
	h.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", attr.Error(err))
	}
}
