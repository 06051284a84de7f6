package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hogarfin/hogarfin/internal/ledger"
	"github.com/hogarfin/hogarfin/internal/model"
	"github.com/hogarfin/hogarfin/internal/rates"
	"github.com/hogarfin/hogarfin/internal/store"
)

type balanceFixture struct {
	handler *BalanceHandler
	txs     *store.TransactionStore
	rates   *rates.Service
}

func newBalanceFixture(t *testing.T) *balanceFixture {
	t.Helper()
	db := setupTestDB(t)
	registerHousehold(t, db)
	ts := store.NewTransactionStore(db)
	svc := rates.NewService(store.NewRateStore(db))
	return &balanceFixture{
		handler: NewBalanceHandler(ts, svc, testLogger()),
		txs:     ts,
		rates:   svc,
	}
}

func (f *balanceFixture) get(t *testing.T, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.Get(rec, httptest.NewRequest("GET", url, nil))
	return rec
}

func TestBalancesRejectsBadMonth(t *testing.T) {
	f := newBalanceFixture(t)

	for _, month := range []string{"2026", "2026-13", "08-2026", "2026-8"} {
		rec := f.get(t, "/api/balances?month="+month)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("month %q: status = %d, want 400", month, rec.Code)
		}
	}
}

func TestBalancesUsesLatestSavedRate(t *testing.T) {
	f := newBalanceFixture(t)
	if _, err := f.rates.Save("2026-08-01", 400); err != nil {
		t.Fatalf("save rate: %v", err)
	}

	in := ledger.Input{
		Date: "2026-08-02", Type: "expense", Category: "Comida",
		Amount: "20000", Currency: "VES", MemberID: 1,
	}
	tx, err := ledger.Build(in, 400)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := f.txs.Create(tx); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := f.get(t, "/api/balances?month=2026-08")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Month    string          `json:"month"`
		Rate     float64         `json:"rate"`
		Balances ledger.Balances `json:"balances"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Rate != 400 {
		t.Errorf("rate = %v, want 400", got.Rate)
	}
	if got.Balances.VESExpense != 20000 {
		t.Errorf("ves expense = %v, want 20000", got.Balances.VESExpense)
	}
	if got.Balances.VESBalanceInUSD != -50 {
		t.Errorf("ves balance in usd = %v, want -50", got.Balances.VESBalanceInUSD)
	}
}

func TestBalancesIncludesUSDPurchase(t *testing.T) {
	f := newBalanceFixture(t)

	in := ledger.Input{
		Date: "2026-08-05", Type: string(model.TypeUSDPurchase),
		MemberID: 1, VESPaid: "40000", USDReceived: "100",
	}
	tx, err := ledger.Build(in, 400)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := f.txs.Create(tx); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := f.get(t, "/api/balances?month=2026-08")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Balances ledger.Balances `json:"balances"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Balances.VESExpense != 40000 || got.Balances.USDIncome != 100 {
		t.Errorf("balances = %+v", got.Balances)
	}
}
