package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/neo-scanner/internal/logging"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// handleStats serves the aggregate overview of ingested data.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	overview, err := s.stats.Overview(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("Failed to load stats overview")
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

// handleClosestApproaches serves the recorded approaches with the smallest
// miss distance.
func (s *Server) handleClosestApproaches(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	approaches, err := s.stats.ClosestApproaches(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("Failed to load closest approaches")
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"limit":      limit,
		"approaches": approaches,
	})
}

// handleBrightestAsteroids serves the asteroids with the lowest absolute
// magnitude.
func (s *Server) handleBrightestAsteroids(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	asteroids, err := s.stats.BrightestAsteroids(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("Failed to load brightest asteroids")
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"limit":     limit,
		"asteroids": asteroids,
	})
}

// parseLimit reads the optional limit query parameter, clamped to maxListLimit.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}
