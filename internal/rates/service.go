// Package rates answers "what rate applies on date D" on top of the
// date-keyed registry.
package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/hogarfin/hogarfin/internal/model"
	"github.com/hogarfin/hogarfin/internal/store"
)

// DefaultRate is the hard-coded VES/USD fallback used when the registry has
// no entries at all. It keeps conversions finite until the household enters
// its first real rate.
const DefaultRate = 407.38

// Service resolves effective exchange rates. The registry only holds
// exact-date entries; the fallback chain (exact date, then latest saved,
// then DefaultRate) lives here.
type Service struct {
	rates *store.RateStore
}

func NewService(rates *store.RateStore) *Service {
	return &Service{rates: rates}
}

// EffectiveRate returns the rate to apply to a transaction dated date
// (YYYY-MM-DD): the exact-date entry if one exists, otherwise the latest
// saved rate.
func (s *Service) EffectiveRate(date string) (float64, error) {
	entry, err := s.rates.GetForDate(date)
	if err != nil {
		return 0, fmt.Errorf("rate for %s: %w", date, err)
	}
	if entry != nil {
		return entry.Rate, nil
	}
	latest, err := s.LatestSaved()
	if err != nil {
		return 0, err
	}
	return latest.Rate, nil
}

// LatestSaved returns the most recently dated registry entry. With an empty
// registry it synthesizes an entry carrying DefaultRate and today's date.
func (s *Service) LatestSaved() (*model.ExchangeRate, error) {
	latest, err := s.rates.Latest()
	if err != nil {
		return nil, fmt.Errorf("latest rate: %w", err)
	}
	if latest != nil {
		return latest, nil
	}
	return &model.ExchangeRate{
		Date: time.Now().UTC().Format("2006-01-02"),
		Rate: DefaultRate,
	}, nil
}

// Save records the rate for the given date, overwriting any previous entry
// for that day.
func (s *Service) Save(date string, rate float64) (*model.ExchangeRate, error) {
	return s.rates.Save(date, rate)
}

// FetchLatest stands in for a live BCV rate source. There is none yet, so it
// always reports DefaultRate; callers treat the result like any manually
// entered value and must not persist it unreviewed.
func (s *Service) FetchLatest(ctx context.Context) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	return DefaultRate, nil
}
