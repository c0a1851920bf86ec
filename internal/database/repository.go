package database

import (
	"database/sql"

	"github.com/BorisSolomonia/9-telebots/internal/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertEntry(e models.Entry) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO entries (recorded_at, customer, amount, product, sender, source)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.RecordedAt, e.Customer, e.Amount, nullString(e.Product), nullString(e.Sender), nullString(e.Source),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *Repository) Stats() (*models.Stats, error) {
	var stats models.Stats
	var last sql.NullString
	err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(amount), 0), COUNT(DISTINCT customer), MAX(recorded_at)
		FROM entries`,
	).Scan(&stats.TotalEntries, &stats.TotalAmount, &stats.Customers, &last)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		stats.LastEntryAt = last.String
	}
	return &stats, nil
}

func (r *Repository) TopCustomers(limit int) ([]models.CustomerTotal, error) {
	rows, err := r.db.Query(`
		SELECT customer, COUNT(*), SUM(amount)
		FROM entries
		GROUP BY customer
		ORDER BY SUM(amount) DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []models.CustomerTotal
	for rows.Next() {
		var t models.CustomerTotal
		if err := rows.Scan(&t.Customer, &t.Entries, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *Repository) RecentEntries(limit int) ([]models.Entry, error) {
	rows, err := r.db.Query(`
		SELECT id, recorded_at, customer, amount, COALESCE(product, ''),
			COALESCE(sender, ''), COALESCE(source, ''), created_at
		FROM entries
		ORDER BY id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.RecordedAt, &e.Customer, &e.Amount, &e.Product, &e.Sender, &e.Source, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
