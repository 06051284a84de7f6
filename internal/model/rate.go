package model

import "time"

// ExchangeRate is the VES-per-USD rate in effect on a given day.
// Dates are YYYY-MM-DD strings so the chronological order is the
// lexicographic order.
type ExchangeRate struct {
	Date      string    `json:"date"`
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}
