package models

// Entry is one mirrored ledger row.
type Entry struct {
	ID         int64   `json:"id"`
	RecordedAt string  `json:"recorded_at"`
	Customer   string  `json:"customer"`
	Amount     float64 `json:"amount"`
	Product    string  `json:"product,omitempty"`
	Sender     string  `json:"sender"`
	Source     string  `json:"source"`
	CreatedAt  string  `json:"created_at"`
}

// Stats summarizes the mirror for the admin endpoint.
type Stats struct {
	TotalEntries int64   `json:"total_entries"`
	TotalAmount  float64 `json:"total_amount"`
	Customers    int64   `json:"customers"`
	LastEntryAt  string  `json:"last_entry_at,omitempty"`
}

// CustomerTotal aggregates one customer's entries.
type CustomerTotal struct {
	Customer string  `json:"customer"`
	Entries  int64   `json:"entries"`
	Total    float64 `json:"total"`
}
