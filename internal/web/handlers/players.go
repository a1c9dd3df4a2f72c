package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kringle-dev/kringle/pkg/models"
)

// GetPlayer returns a player by handle.
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	p, err := h.db.GetPlayerByHandle(r.Context(), handle)
	if err != nil {
		respondOpError(w, err)
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "player not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// ListPlayers returns players, optionally filtered by capacity status.
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	status := models.CapacityStatus(r.URL.Query().Get("capacity"))
	if status == "" {
		respondError(w, http.StatusBadRequest, "capacity parameter is required")
		return
	}

	players, err := h.db.ListPlayersByCapacity(r.Context(), status)
	if err != nil {
		respondOpError(w, err)
		return
	}
	if players == nil {
		players = []models.Player{}
	}
	respondJSON(w, http.StatusOK, players)
}
