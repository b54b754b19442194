package api

import (
	"net/http"
	"time"

	"github.com/ondraz/printlink/internal/filejob"
	"github.com/ondraz/printlink/internal/state"
)

// statusResponse is the response body for GET /status.
type statusResponse struct {
	State     state.State    `json:"state"`
	LastState state.State    `json:"last_state"`
	Printing  bool           `json:"printing"`
	Attention bool           `json:"attention"`
	Progress  int            `json:"progress"`
	Job       filejob.Status `json:"job"`
}

// transitionEvent is the WebSocket payload for one state change.
type transitionEvent struct {
	From      state.State  `json:"from"`
	To        state.State  `json:"to"`
	Source    state.Source `json:"source,omitempty"`
	CommandID string       `json:"command_id,omitempty"`
	At        time.Time    `json:"at"`
}

// handleStatus reports the printer's reportable state and the current
// job, if any.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		State:     s.manager.CurrentState(),
		LastState: s.manager.LastState(),
		Printing:  s.manager.IsPrinting(),
		Attention: s.manager.HasOverride(),
		Progress:  s.manager.Progress(),
		Job:       s.jobs.Status(),
	})
}
