// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/model"
	"github.com/okian/sideout/internal/domain/snapshot"
)

// SetsDependencies defines the operations set handlers need.
type SetsDependencies interface {
	SetWriter
	SetReader
}

// SetsHandler handles set creation, listing and lookup.
type SetsHandler struct {
	deps SetsDependencies
}

// NewSetsHandler creates a new sets handler.
func NewSetsHandler(deps SetsDependencies) *SetsHandler {
	return &SetsHandler{deps: deps}
}

// HandleSets handles POST /sets and GET /sets requests.
func (h *SetsHandler) HandleSets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SetsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_set"
	var req model.SetSetup
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	d, err := descriptorFrom(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.StartSet(r.Context(), d)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *SetsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_sets"
	sets, err := h.deps.Sets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

// HandleGetSet handles GET /sets/{id} requests.
func (h *SetsHandler) HandleGetSet(w http.ResponseWriter, r *http.Request, setID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	view, err := h.deps.Set(r.Context(), setID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// descriptorFrom validates the wire payload and maps it to a set
// descriptor. Lineup consistency checks happen downstream.
func descriptorFrom(req model.SetSetup) (snapshot.Descriptor, error) {
	var d snapshot.Descriptor
	if req.SetNumber < 1 {
		return d, errors.New("set_number must be at least 1")
	}
	if len(req.Starting) != len(d.Starting) {
		return d, errors.New("starting_six must list exactly six players")
	}
	for i, p := range req.Starting {
		if strings.TrimSpace(p) == "" {
			return d, errors.New("starting_six must not contain empty ids")
		}
		d.Starting[i] = event.PlayerID(p)
	}
	if strings.TrimSpace(req.Setter) == "" {
		return d, errors.New("missing setter")
	}
	if strings.TrimSpace(req.Libero) == "" {
		return d, errors.New("missing libero")
	}
	d.SetNumber = req.SetNumber
	d.ServingUs = req.ServingUs
	d.Setter = event.PlayerID(req.Setter)
	d.Libero = event.PlayerID(req.Libero)
	d.FallbackLibero = event.PlayerID(req.FallbackLibero)
	return d, nil
}
