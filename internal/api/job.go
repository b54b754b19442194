package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ondraz/printlink/internal/filejob"
)

// startJobRequest is the request body for POST /job.
type startJobRequest struct {
	Path string `json:"path"`
}

// handleStartJob starts streaming a local G-code file.
func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	if err := s.jobs.Start(r.Context(), req.Path); err != nil {
		if errors.Is(err, filejob.ErrJobInProgress) {
			writeConflict(w, "a job is already in progress")
			return
		}
		writeBadRequest(w, err.Error())
		return
	}

	status := s.jobs.Status()
	s.emitJobEvent("started", status)
	writeJSON(w, http.StatusAccepted, status)
}

// handleStopJob aborts the current job.
func (s *Server) handleStopJob(w http.ResponseWriter, r *http.Request) {
	status := s.jobs.Status()
	if err := s.jobs.Stop(r.Context()); err != nil {
		s.writeJobError(w, err)
		return
	}
	s.emitJobEvent("stopped", status)
	writeJSON(w, http.StatusOK, s.jobs.Status())
}

// handlePauseJob pauses the current job.
func (s *Server) handlePauseJob(w http.ResponseWriter, r *http.Request) {
	if err := s.jobs.Pause(r.Context()); err != nil {
		s.writeJobError(w, err)
		return
	}
	status := s.jobs.Status()
	s.emitJobEvent("paused", status)
	writeJSON(w, http.StatusOK, status)
}

// handleResumeJob resumes a paused job.
func (s *Server) handleResumeJob(w http.ResponseWriter, r *http.Request) {
	if err := s.jobs.Resume(r.Context()); err != nil {
		s.writeJobError(w, err)
		return
	}
	status := s.jobs.Status()
	s.emitJobEvent("resumed", status)
	writeJSON(w, http.StatusOK, status)
}

// writeJobError maps driver errors to HTTP responses.
func (s *Server) writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, filejob.ErrNoJob):
		writeNotFound(w, "no job in progress")
	case errors.Is(err, filejob.ErrNotPaused):
		writeConflict(w, "job is not paused")
	default:
		s.logger.Error("job control failed", "error", err)
		writeInternalError(w, "job control failed")
	}
}

// emitJobEvent forwards a job lifecycle event to the reporter, when
// one is configured.
func (s *Server) emitJobEvent(action string, status filejob.Status) {
	if s.reporter == nil {
		return
	}
	s.reporter.JobEvent(action, status.FileName, status.Progress)
}
