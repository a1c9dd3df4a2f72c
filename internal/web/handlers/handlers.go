package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/kringle-dev/kringle/config"
	"github.com/kringle-dev/kringle/internal/database"
	"github.com/kringle-dev/kringle/internal/lifecycle"
	"github.com/kringle-dev/kringle/internal/matching"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	db        *database.DB
	cfg       *config.Config
	matcher   *matching.Service
	lifecycle *lifecycle.Service
}

// New creates a new handler.
func New(db *database.DB, cfg *config.Config, matcher *matching.Service, lc *lifecycle.Service) *Handler {
	return &Handler{db: db, cfg: cfg, matcher: matcher, lifecycle: lc}
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondOpError maps a service error to the right status code: 404 for
// missing players/matches, 409 for capacity conflicts and unconstructible
// assignments, 412 for too-few candidates, 400 for bad transitions, 500
// for everything else.
func respondOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrMatchNotFound),
		errors.Is(err, lifecycle.ErrPlayerNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrCapacityConflict),
		errors.Is(err, matching.ErrNoValidAssignment):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, matching.ErrInsufficientCandidates):
		respondError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
