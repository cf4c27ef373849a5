// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/sideout/internal/adapters/repository"
	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/model"
	"github.com/okian/sideout/internal/domain/snapshot"
	"github.com/okian/sideout/internal/domain/types"
)

// Dependencies bundles the service operations HTTP handlers need. Using an
// interface keeps the handler layer loosely coupled to the app package.
type Dependencies interface {
	SetWriter
	SetReader
	Reporter
	Replayer
}

// SetWriter covers the mutating set operations.
type SetWriter interface {
	StartSet(ctx context.Context, d snapshot.Descriptor) (types.SetView, error)
	ApplyEvent(ctx context.Context, setID string, sub model.Submission) (types.SetView, bool, error)
	UndoLast(ctx context.Context, setID string) (types.SetView, error)
}

// SetReader covers the read-only set operations.
type SetReader interface {
	Set(ctx context.Context, setID string) (types.SetView, error)
	Sets(ctx context.Context) ([]types.SetSummary, error)
	Events(ctx context.Context, setID string) ([]types.EventRow, error)
}

// Replayer triggers background verification of the stored archive.
type Replayer interface {
	ArchiveRebuild(ctx context.Context) (int, error)
}

// Reporter covers the aggregation endpoints.
type Reporter interface {
	Report(ctx context.Context, setID string) (types.Report, error)
	MatchReport(ctx context.Context, setIDs []string) (types.MatchReport, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	setsHandler    *SetsHandler
	eventsHandler  *EventsHandler
	reportsHandler *ReportsHandler
	replayHandler  *ReplayHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		setsHandler:    NewSetsHandler(deps),
		eventsHandler:  NewEventsHandler(deps),
		reportsHandler: NewReportsHandler(deps),
		replayHandler:  NewReplayHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sets", MetricsMiddleware(s.setsHandler.HandleSets, "sets"))
	mux.HandleFunc("/sets/", MetricsMiddleware(s.handleSetSubtree, "sets"))
	mux.HandleFunc("/match/report", MetricsMiddleware(s.reportsHandler.HandleMatchReport, "match_report"))
	mux.HandleFunc("/replay", MetricsMiddleware(s.replayHandler.HandleReplay, "replay"))
}

// handleSetSubtree dispatches /sets/{id}[...] paths to the right handler.
func (s *Server) handleSetSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sets/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch sub {
	case "":
		s.setsHandler.HandleGetSet(w, r, id)
	case "events":
		switch r.Method {
		case http.MethodGet:
			s.eventsHandler.HandleGetEvents(w, r, id)
		default:
			s.eventsHandler.HandlePostEvent(w, r, id)
		}
	case "events/last":
		s.eventsHandler.HandleDeleteLastEvent(w, r, id)
	case "report":
		s.reportsHandler.HandleSetReport(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

type ackResponse struct {
	Status    string        `json:"status"`
	Duplicate bool          `json:"duplicate"`
	Set       types.SetView `json:"set"`
}

type errorResponse struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	LegalEvents []string `json:"legal_events,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates service-layer failures into HTTP responses.
// Rejections carry the currently legal event types so the client can
// correct and resubmit.
func writeDomainError(w http.ResponseWriter, err error) {
	var illegal *snapshot.IllegalEventError
	switch {
	case errors.Is(err, repository.ErrSetNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, snapshot.ErrSetComplete):
		writeError(w, http.StatusConflict, "set_complete", err)
	case errors.Is(err, repository.ErrEmptyLog):
		writeError(w, http.StatusConflict, "empty_log", err)
	case errors.Is(err, snapshot.ErrBadDescriptor):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.As(err, &illegal):
		legal := make([]string, len(illegal.Legal))
		for i, t := range illegal.Legal {
			legal[i] = string(t)
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:        "illegal_event",
			Message:     err.Error(),
			LegalEvents: legal,
		})
	case errors.Is(err, event.ErrMalformedEntry),
		errors.Is(err, event.ErrUnknownType),
		errors.Is(err, event.ErrUnknownEvaluation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
