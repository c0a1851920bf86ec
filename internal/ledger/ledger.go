// Package ledger appends accepted intake rows to a durable sheet.
package ledger

import (
	"context"
	"strings"
	"time"
)

// Row is one accepted order or payment. Product is empty for payments.
type Row struct {
	Timestamp time.Time
	Customer  string
	Amount    float64
	Product   string
	Sender    string
	Source    string
}

// Ledger records rows in append order.
type Ledger interface {
	Append(ctx context.Context, row Row) error
}

// sanitize flattens embedded line breaks so a field never spans cells.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
