// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/sideout/internal/domain/model"
)

// EventDependencies defines the interface for event processing dependencies.
type EventDependencies interface {
	SetWriter
	SetReader
}

// EventsHandler handles scouting event submissions and undo.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /sets/{id}/events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request, setID string) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req model.Submission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateSubmission(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	view, duplicate, err := h.deps.ApplyEvent(r.Context(), setID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := "applied"
	if duplicate {
		status = "duplicate"
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: status, Duplicate: duplicate, Set: view})
}

// HandleGetEvents handles GET /sets/{id}/events requests, returning the
// accepted log in append order.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request, setID string) {
	rows, err := h.deps.Events(r.Context(), setID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"set_id": setID, "events": rows})
}

// HandleDeleteLastEvent handles DELETE /sets/{id}/events/last requests.
func (h *EventsHandler) HandleDeleteLastEvent(w http.ResponseWriter, r *http.Request, setID string) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	view, err := h.deps.UndoLast(r.Context(), setID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "undone", Set: view})
}

func validateSubmission(s model.Submission) error {
	switch {
	case strings.TrimSpace(s.SubmissionID) == "":
		return errors.New("missing submission_id")
	case s.Timestamp.Equal(time.Time{}):
		return errors.New("missing timestamp")
	case strings.TrimSpace(s.Type) == "":
		return errors.New("missing type")
	}
	return nil
}
