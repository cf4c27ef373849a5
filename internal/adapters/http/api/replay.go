// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// ReplayHandler triggers a background rebuild of every stored set.
type ReplayHandler struct {
	deps Replayer
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(deps Replayer) *ReplayHandler {
	return &ReplayHandler{deps: deps}
}

// HandleReplay handles POST /replay requests. Each stored set gets a
// verification job enqueued; the response reports how many were scheduled.
func (h *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	n, err := h.deps.ArchiveRebuild(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"enqueued": n})
}
