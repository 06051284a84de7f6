// Package ledger holds the balance computation and transaction construction
// rules. Everything here is pure: stores feed data in, handlers persist the
// results.
package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/hogarfin/hogarfin/internal/model"
)

// ErrInvalidRate is returned when a balance conversion is requested with a
// non-positive rate. Dividing by it would silently produce garbage.
var ErrInvalidRate = errors.New("exchange rate must be positive")

// Balances are the month totals for both currencies. VESBalanceInUSD is the
// VES balance converted at the supplied rate.
type Balances struct {
	VESIncome       float64 `json:"ves_income"`
	VESExpense      float64 `json:"ves_expense"`
	USDIncome       float64 `json:"usd_income"`
	USDExpense      float64 `json:"usd_expense"`
	VESBalance      float64 `json:"ves_balance"`
	USDBalance      float64 `json:"usd_balance"`
	VESBalanceInUSD float64 `json:"ves_balance_in_usd"`
}

// ComputeBalances folds the transactions whose date falls in the period into
// per-currency totals. period is a "YYYY-MM" month prefix matched against the
// ISO form of each transaction date; an empty period matches everything.
//
// A usd_purchase counts as a VES expense (VESPaid) and a USD income
// (USDReceived) at the same time. It never touches USDExpense or VESIncome.
func ComputeBalances(txs []model.Transaction, period string, rate float64) (*Balances, error) {
	if rate <= 0 {
		return nil, ErrInvalidRate
	}

	var b Balances
	for _, t := range txs {
		if !inPeriod(t.Date, period) {
			continue
		}
		switch t.Type {
		case model.TypeIncome:
			if t.Currency == model.CurrencyUSD {
				b.USDIncome += t.Amount
			} else {
				b.VESIncome += t.Amount
			}
		case model.TypeExpense:
			if t.Currency == model.CurrencyUSD {
				b.USDExpense += t.Amount
			} else {
				b.VESExpense += t.Amount
			}
		case model.TypeUSDPurchase:
			b.VESExpense += deref(t.VESPaid)
			b.USDIncome += deref(t.USDReceived)
		}
	}

	b.VESBalance = b.VESIncome - b.VESExpense
	b.USDBalance = b.USDIncome - b.USDExpense
	b.VESBalanceInUSD = b.VESBalance / rate
	return &b, nil
}

func inPeriod(date time.Time, period string) bool {
	if period == "" {
		return true
	}
	return strings.HasPrefix(date.UTC().Format(time.RFC3339), period)
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
