package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/BorisSolomonia/9-telebots/internal/models"
)

const (
	defaultEntryLimit = 20
	maxEntryLimit     = 100
)

func (h *Handler) RecentEntries(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, "Mirror database not configured", http.StatusServiceUnavailable)
		return
	}

	limit := defaultEntryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxEntryLimit {
			limit = n
		}
	}

	entries, err := h.repo.RecentEntries(limit)
	if err != nil {
		http.Error(w, "Failed to load entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total":   len(entries),
		"entries": entries,
	})
}
