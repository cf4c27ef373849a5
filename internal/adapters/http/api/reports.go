// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// ReportsHandler handles per-set and whole-match report requests.
type ReportsHandler struct {
	deps Reporter
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Reporter) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleSetReport handles GET /sets/{id}/report requests.
func (h *ReportsHandler) HandleSetReport(w http.ResponseWriter, r *http.Request, setID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.Report(r.Context(), setID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleMatchReport handles GET /match/report requests. An optional
// set_ids query parameter narrows the report to a comma separated list;
// otherwise every stored set is merged.
func (h *ReportsHandler) HandleMatchReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	var ids []string
	if raw := strings.TrimSpace(r.URL.Query().Get("set_ids")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	report, err := h.deps.MatchReport(r.Context(), ids)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
