package handlers

import (
	"encoding/json"
	"net/http"
)

const topCustomerLimit = 10

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, "Mirror database not configured", http.StatusServiceUnavailable)
		return
	}

	stats, err := h.repo.Stats()
	if err != nil {
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	top, err := h.repo.TopCustomers(topCustomerLimit)
	if err != nil {
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"stats":         stats,
		"top_customers": top,
	})
}
