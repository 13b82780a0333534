package server

import (
	"net/http"

	"github.com/Vodeneev/easepick/internal/pkg/storage"
)

func (s *Server) handleWatcherStatus(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		respondError(w, http.StatusServiceUnavailable, "watcher is not configured", nil)
		return
	}
	respondJSON(w, http.StatusOK, s.watcher.Status())
}

// handleWatcherStart starts the periodic watcher runs
func (s *Server) handleWatcherStart(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		respondError(w, http.StatusServiceUnavailable, "watcher is not configured", nil)
		return
	}

	if s.watcher.IsRunning() {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "already_running",
			"message": "Watcher is already running",
		})
		return
	}

	if err := s.watcher.StartAsync(); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "failed to start watcher",
			"message": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "started",
		"message": "Watcher started successfully",
	})
}

// handleWatcherStop stops the periodic watcher runs
func (s *Server) handleWatcherStop(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		respondError(w, http.StatusServiceUnavailable, "watcher is not configured", nil)
		return
	}

	if !s.watcher.IsRunning() {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "already_stopped",
			"message": "Watcher is not running",
		})
		return
	}

	s.watcher.StopAsync()

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "stopped",
		"message": "Watcher stopped successfully",
	})
}

// handleWatcherRun runs the watcher once, outside the schedule.
func (s *Server) handleWatcherRun(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		respondError(w, http.StatusServiceUnavailable, "watcher is not configured", nil)
		return
	}

	run := s.watcher.RunOnce(r.Context())
	status := http.StatusOK
	if run.Error != "" {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, run)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		respondError(w, http.StatusServiceUnavailable, "pick journal is not configured", nil)
		return
	}

	picks, err := s.journal.RecentPicks(r.Context(), parseIntParam(r, "limit", 0))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read pick journal", err)
		return
	}
	if picks == nil {
		picks = []storage.PickRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"picks": picks,
		"count": len(picks),
	})
}
