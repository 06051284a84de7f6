package ledger

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hogarfin/hogarfin/internal/model"
)

func day(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	return d.UTC()
}

func ptr(f float64) *float64 { return &f }

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestComputeBalancesEmpty(t *testing.T) {
	b, err := ComputeBalances(nil, "2026-08", 400)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if *b != (Balances{}) {
		t.Errorf("expected all-zero balances, got %+v", b)
	}
}

func TestComputeBalancesMixedCurrencies(t *testing.T) {
	txs := []model.Transaction{
		{Date: day(t, "2026-08-01"), Type: model.TypeIncome, Currency: model.CurrencyUSD, Amount: 500},
		{Date: day(t, "2026-08-02"), Type: model.TypeExpense, Currency: model.CurrencyVES, Amount: 20000},
	}

	b, err := ComputeBalances(txs, "2026-08", 400)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if b.USDIncome != 500 || b.USDExpense != 0 || b.VESIncome != 0 || b.VESExpense != 20000 {
		t.Errorf("totals = %+v", b)
	}
	if b.USDBalance != 500 || b.VESBalance != -20000 {
		t.Errorf("balances = %+v", b)
	}
	if !approx(b.VESBalanceInUSD, -50) {
		t.Errorf("ves balance in usd = %v, want -50", b.VESBalanceInUSD)
	}
}

func TestComputeBalancesUSDPurchase(t *testing.T) {
	txs := []model.Transaction{
		{
			Date: day(t, "2026-08-05"), Type: model.TypeUSDPurchase,
			Currency: model.CurrencyVES, Amount: 40000,
			VESPaid: ptr(40000), USDReceived: ptr(100),
		},
	}

	b, err := ComputeBalances(txs, "2026-08", 400)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if b.VESExpense != 40000 || b.USDIncome != 100 {
		t.Errorf("purchase totals = %+v", b)
	}
	// A purchase never counts as USD expense or VES income
	if b.USDExpense != 0 || b.VESIncome != 0 {
		t.Errorf("purchase leaked into wrong accumulators: %+v", b)
	}
}

func TestComputeBalancesPurchaseMissingAmounts(t *testing.T) {
	// Legacy rows may lack the purchase fields; they count as zero.
	txs := []model.Transaction{
		{Date: day(t, "2026-08-05"), Type: model.TypeUSDPurchase, Currency: model.CurrencyVES},
	}

	b, err := ComputeBalances(txs, "2026-08", 400)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if b.VESExpense != 0 || b.USDIncome != 0 {
		t.Errorf("expected zero contribution, got %+v", b)
	}
}

func TestComputeBalancesPeriodFilter(t *testing.T) {
	txs := []model.Transaction{
		{Date: day(t, "2026-07-31"), Type: model.TypeIncome, Currency: model.CurrencyUSD, Amount: 100},
		{Date: day(t, "2026-08-01"), Type: model.TypeIncome, Currency: model.CurrencyUSD, Amount: 200},
		{Date: day(t, "2026-09-01"), Type: model.TypeIncome, Currency: model.CurrencyUSD, Amount: 400},
	}

	b, err := ComputeBalances(txs, "2026-08", 400)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if b.USDIncome != 200 {
		t.Errorf("usd income = %v, want only August's 200", b.USDIncome)
	}
}

// Filtering inside ComputeBalances must agree with summing a pre-filtered
// slice directly.
func TestComputeBalancesFilterFoldCommute(t *testing.T) {
	all := []model.Transaction{
		{Date: day(t, "2026-07-15"), Type: model.TypeExpense, Currency: model.CurrencyVES, Amount: 1000},
		{Date: day(t, "2026-08-10"), Type: model.TypeIncome, Currency: model.CurrencyUSD, Amount: 50},
		{Date: day(t, "2026-08-20"), Type: model.TypeExpense, Currency: model.CurrencyUSD, Amount: 30},
	}
	august := all[1:]

	filtered, err := ComputeBalances(all, "2026-08", 400)
	if err != nil {
		t.Fatalf("compute filtered: %v", err)
	}
	direct, err := ComputeBalances(august, "", 400)
	if err != nil {
		t.Fatalf("compute direct: %v", err)
	}
	if *filtered != *direct {
		t.Errorf("filtered %+v != direct %+v", filtered, direct)
	}
}

func TestComputeBalancesNonPositiveRate(t *testing.T) {
	for _, rate := range []float64{0, -1} {
		_, err := ComputeBalances(nil, "2026-08", rate)
		if !errors.Is(err, ErrInvalidRate) {
			t.Errorf("rate %v: err = %v, want ErrInvalidRate", rate, err)
		}
	}
}
