package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hogarfin/hogarfin/internal/model"
	"github.com/hogarfin/hogarfin/internal/rates"
	"github.com/hogarfin/hogarfin/internal/store"
)

type txFixture struct {
	handler     *TransactionHandler
	rates       *rates.Service
	householdID int64
	memberID    int64
}

func newTxFixture(t *testing.T) *txFixture {
	t.Helper()
	db := setupTestDB(t)
	householdID, memberID := registerHousehold(t, db)
	svc := rates.NewService(store.NewRateStore(db))
	h := NewTransactionHandler(
		store.NewTransactionStore(db),
		store.NewHouseholdStore(db),
		svc, nil, testLogger(),
	)
	return &txFixture{handler: h, rates: svc, householdID: householdID, memberID: memberID}
}

func (f *txFixture) create(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := authed(httptest.NewRequest("POST", "/api/transactions", strings.NewReader(body)), f.householdID)
	rec := httptest.NewRecorder()
	f.handler.Create(rec, req)
	return rec
}

func (f *txFixture) expenseBody(date, amount string) string {
	return fmt.Sprintf(
		`{"date":%q,"type":"expense","category":"Comida","amount":%q,"currency":"VES","member_id":%d,"business":"Mercado"}`,
		date, amount, f.memberID)
}

func TestCreateTransactionStampsRate(t *testing.T) {
	f := newTxFixture(t)
	if _, err := f.rates.Save("2026-08-15", 410); err != nil {
		t.Fatalf("save rate: %v", err)
	}

	rec := f.create(t, f.expenseBody("2026-08-15", "5000"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var got transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RateSnapshot == nil || *got.RateSnapshot != 410 {
		t.Errorf("rate_snapshot = %v, want 410", got.RateSnapshot)
	}
	if got.AmountUSDComputed == nil || *got.AmountUSDComputed != 5000.0/410 {
		t.Errorf("amount_usd_computed = %v", got.AmountUSDComputed)
	}
	if got.MemberName != "Maria" {
		t.Errorf("member_name = %q, want Maria", got.MemberName)
	}
}

func TestCreateTransactionValidationErrors(t *testing.T) {
	f := newTxFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing member", `{"date":"2026-08-15","type":"expense","category":"Comida","amount":"50","currency":"VES"}`},
		{"bad amount", f.expenseBody("2026-08-15", "-5")},
		{"bad date", f.expenseBody("15/08/2026", "50")},
		{"purchase zero usd", fmt.Sprintf(`{"date":"2026-08-15","type":"usd_purchase","member_id":%d,"ves_paid":"40000","usd_received":"0"}`, f.memberID)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.create(t, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateUSDPurchaseForcesCategory(t *testing.T) {
	f := newTxFixture(t)

	body := fmt.Sprintf(
		`{"date":"2026-08-15","type":"usd_purchase","category":"Ocio","member_id":%d,"ves_paid":"40000","usd_received":"100"}`,
		f.memberID)
	rec := f.create(t, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var got transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Category != model.CategoryAhorro {
		t.Errorf("category = %q, want %q", got.Category, model.CategoryAhorro)
	}
	if got.Currency != model.CurrencyVES {
		t.Errorf("currency = %q, want VES", got.Currency)
	}
}

func TestListTransactionsNewestFirstWithFilters(t *testing.T) {
	f := newTxFixture(t)

	for _, d := range []string{"2026-07-31", "2026-08-01", "2026-08-20"} {
		if rec := f.create(t, f.expenseBody(d, "100")); rec.Code != http.StatusCreated {
			t.Fatalf("create %s: %d %s", d, rec.Code, rec.Body.String())
		}
	}

	req := authed(httptest.NewRequest("GET", "/api/transactions?month=2026-08", nil), f.householdID)
	rec := httptest.NewRecorder()
	f.handler.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got []transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (July filtered out)", len(got))
	}
	if !got[0].Date.After(got[1].Date) {
		t.Errorf("not newest first: %v then %v", got[0].Date, got[1].Date)
	}
}

func TestListTransactionsOrphanedMemberShowsAnon(t *testing.T) {
	f := newTxFixture(t)

	body := fmt.Sprintf(
		`{"date":"2026-08-15","type":"expense","category":"Comida","amount":"50","currency":"VES","member_id":%d}`,
		f.memberID+999)
	if rec := f.create(t, body); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	req := authed(httptest.NewRequest("GET", "/api/transactions", nil), f.householdID)
	rec := httptest.NewRecorder()
	f.handler.List(rec, req)

	var got []transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].MemberName != memberNameFallback {
		t.Errorf("got %+v, want member_name %q", got, memberNameFallback)
	}
}

func TestUpdateTransactionNotFound(t *testing.T) {
	f := newTxFixture(t)

	req := authed(httptest.NewRequest("PUT", "/api/transactions/42", strings.NewReader(f.expenseBody("2026-08-15", "50"))), f.householdID)
	req.SetPathValue("id", "42")
	rec := httptest.NewRecorder()
	f.handler.Update(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	f := newTxFixture(t)

	createRec := f.create(t, f.expenseBody("2026-08-15", "50"))
	var created transactionView
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := authed(httptest.NewRequest("DELETE", "/api/transactions/1", nil), f.householdID)
	req.SetPathValue("id", fmt.Sprint(created.ID))
	rec := httptest.NewRecorder()
	f.handler.Delete(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = authed(httptest.NewRequest("DELETE", "/api/transactions/1", nil), f.householdID)
	req.SetPathValue("id", fmt.Sprint(created.ID))
	f.handler.Delete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
