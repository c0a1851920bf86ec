package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/BorisSolomonia/9-telebots/internal/customer"
	"github.com/BorisSolomonia/9-telebots/internal/database"
)

type Handler struct {
	store *customer.Store
	repo  *database.Repository
}

func New(store *customer.Store, repo *database.Repository) *Handler {
	return &Handler{store: store, repo: repo}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
