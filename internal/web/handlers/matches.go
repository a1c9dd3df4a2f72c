package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kringle-dev/kringle/internal/database"
	"github.com/kringle-dev/kringle/internal/lifecycle"
	"github.com/kringle-dev/kringle/internal/matching"
	"github.com/kringle-dev/kringle/pkg/models"
)

// AutoMatch runs one automated matching cycle.
func (h *Handler) AutoMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MinRecentPosts int `json:"min_recent_posts"`
	}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	matches, err := h.matcher.AutoMatch(r.Context(), matching.Constraints{MinRecentPosts: req.MinRecentPosts})
	if err != nil {
		respondOpError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"created": len(matches),
		"matches": matches,
	})
}

// AssignSanta creates a single manual draft match.
func (h *Handler) AssignSanta(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GifteeID    string `json:"giftee_id"`
		SantaHandle string `json:"santa_handle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GifteeID == "" || req.SantaHandle == "" {
		respondError(w, http.StatusBadRequest, "giftee_id and santa_handle are required")
		return
	}

	m, err := h.lifecycle.AssignSanta(r.Context(), req.GifteeID, req.SantaHandle)
	if err != nil {
		respondOpError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// Reassign moves a match to a new santa.
func (h *Handler) Reassign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		SantaHandle string `json:"santa_handle"`
		SuperSanta  bool   `json:"super_santa"`
		Force       bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SantaHandle == "" {
		respondError(w, http.StatusBadRequest, "santa_handle is required")
		return
	}

	m, err := h.lifecycle.Reassign(r.Context(), id, req.SantaHandle, lifecycle.ReassignOptions{
		SuperSanta: req.SuperSanta,
		Force:      req.Force,
	})
	if err != nil {
		respondOpError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// PublishMatches advances a status cohort.
func (h *Handler) PublishMatches(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.lifecycle.Publish(r.Context(), models.MatchStatus(req.From), models.MatchStatus(req.To))
	if err != nil {
		respondOpError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"published": n})
}

// DeactivateMatch retires a match.
func (h *Handler) DeactivateMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.lifecycle.Deactivate(r.Context(), id); err != nil {
		respondOpError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// MarkSorted records gift-sorted bookkeeping on a match.
func (h *Handler) MarkSorted(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.lifecycle.MarkSorted(r.Context(), id); err != nil {
		respondOpError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sorted"})
}

// MarkContacted records santa-contacted bookkeeping on a match.
func (h *Handler) MarkContacted(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.lifecycle.MarkContacted(r.Context(), id); err != nil {
		respondOpError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "contacted"})
}

// ListMatches returns matches with player handles joined in, filtered by
// query parameters.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	filter := database.MatchFilter{
		Status: models.MatchStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid active parameter")
			return
		}
		filter.ActiveOnly = active
	}
	if v := r.URL.Query().Get("valid"); v != "" {
		valid, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid valid parameter")
			return
		}
		filter.ValidOnly = valid
	}

	matches, err := h.db.ListMatches(r.Context(), filter)
	if err != nil {
		respondOpError(w, err)
		return
	}
	if matches == nil {
		matches = []models.MatchWithPlayers{}
	}
	respondJSON(w, http.StatusOK, matches)
}

// DeleteDrafts removes every draft match.
func (h *Handler) DeleteDrafts(w http.ResponseWriter, r *http.Request) {
	n, err := h.lifecycle.DeleteDrafts(r.Context())
	if err != nil {
		respondOpError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
