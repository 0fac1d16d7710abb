package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth reports liveness.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSystemStatus reports process uptime and cache occupancy.
// GET /api/system/status
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":         "running",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	}
	if s.provider != nil {
		status["cached_series"] = s.provider.CacheSize()
	}
	if s.sched != nil && s.refreshJobName != "" {
		if last := s.sched.LastRun(s.refreshJobName); !last.IsZero() {
			status["last_cache_refresh"] = last.UTC().Format(time.RFC3339)
		}
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
