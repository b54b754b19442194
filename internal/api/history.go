package api

import (
	"net/http"
	"strconv"
)

// handleStateHistory returns recent state transitions, newest first.
// The optional limit query parameter is clamped by the repository.
func (s *Server) handleStateHistory(w http.ResponseWriter, r *http.Request) {
	if s.historian == nil {
		writeNotFound(w, "transition history is not enabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := s.historian.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to query transition history", "error", err)
		writeInternalError(w, "failed to query transition history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transitions": records,
		"count":       len(records),
	})
}

// handleListJobs returns recent job records, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobHistory == nil {
		writeNotFound(w, "job history is not enabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := s.jobHistory.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to query job history", "error", err)
		writeInternalError(w, "failed to query job history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  records,
		"count": len(records),
	})
}
