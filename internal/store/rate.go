package store

import (
	"database/sql"
	"fmt"

	"github.com/hogarfin/hogarfin/internal/model"
)

// RateStore is the date-keyed exchange-rate registry. One entry per day;
// saving again for the same date overwrites. Entries are never deleted.
type RateStore struct {
	db *sql.DB
}

func NewRateStore(db *sql.DB) *RateStore {
	return &RateStore{db: db}
}

// GetForDate returns the rate entered for exactly the given YYYY-MM-DD date,
// or nil. There is no nearest-date fallback at this level.
func (s *RateStore) GetForDate(date string) (*model.ExchangeRate, error) {
	var r model.ExchangeRate
	err := s.db.QueryRow(
		`SELECT date, rate, updated_at FROM exchange_rates WHERE date = ?`, date,
	).Scan(&r.Date, &r.Rate, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate for %s: %w", date, err)
	}
	return &r, nil
}

// Save upserts the rate for the given date.
func (s *RateStore) Save(date string, rate float64) (*model.ExchangeRate, error) {
	_, err := s.db.Exec(
		`INSERT INTO exchange_rates (date, rate, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(date) DO UPDATE SET rate = excluded.rate, updated_at = excluded.updated_at`,
		date, rate,
	)
	if err != nil {
		return nil, fmt.Errorf("save rate for %s: %w", date, err)
	}
	return s.GetForDate(date)
}

// Latest returns the entry with the greatest date string, or nil when the
// registry is empty. Lexicographic max equals chronological max for
// YYYY-MM-DD keys.
func (s *RateStore) Latest() (*model.ExchangeRate, error) {
	var r model.ExchangeRate
	err := s.db.QueryRow(
		`SELECT date, rate, updated_at FROM exchange_rates ORDER BY date DESC LIMIT 1`,
	).Scan(&r.Date, &r.Rate, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest rate: %w", err)
	}
	return &r, nil
}
