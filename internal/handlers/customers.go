package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/BorisSolomonia/9-telebots/internal/customer"
)

type createCustomerRequest struct {
	Record string `json:"record"`
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	index := h.store.Index()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total":     index.Len(),
		"customers": index.Records(),
	})
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record := strings.TrimSpace(req.Record)
	if record == "" {
		http.Error(w, "Record is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Add(record); err != nil {
		if errors.Is(err, customer.ErrDuplicate) {
			http.Error(w, "Customer already exists", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to save customer", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"record": record,
		"key":    customer.DeriveKey(record),
	})
}
