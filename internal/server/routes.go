package server

import (
	"encoding/json"
	"net/http"

	"github.com/zsiec/termvid/internal/errors"
	"github.com/zsiec/termvid/internal/logger"
	"github.com/zsiec/termvid/pkg/version"
)

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := s.writeJSON(w, http.StatusOK, version.GetInfo()); err != nil {
		logger.FromContext(r.Context(), s.logger).WithError(err).Error("Failed to encode version response")
	}
}

// handlePlayback reports the driver status.
func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	if s.playback == nil {
		s.errorHandler.HandleError(w, r, errors.NewNotFoundError("active playback"))
		return
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if err := s.writeJSON(w, http.StatusOK, s.playback.Status()); err != nil {
		logger.FromContext(r.Context(), s.logger).WithError(err).Error("Failed to encode playback status")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
