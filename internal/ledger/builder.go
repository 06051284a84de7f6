package ledger

import (
	"errors"
	"strconv"
	"time"

	"github.com/hogarfin/hogarfin/internal/model"
)

// Validation failures surfaced to the user as inline messages. They never
// leave persisted state partially applied.
var (
	ErrMissingMember          = errors.New("a member must be selected")
	ErrInvalidPurchaseAmounts = errors.New("ves_paid and usd_received must be numbers and usd_received must be nonzero")
	ErrInvalidAmount          = errors.New("amount must be a positive number")
	ErrInvalidDate            = errors.New("date must be YYYY-MM-DD")
)

// Input carries the raw form values for a transaction. Amounts arrive as
// strings because that is what the client sends; parsing them is part of
// validation.
type Input struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	MemberID    int64  `json:"member_id"`
	Business    string `json:"business"`
	Notes       string `json:"notes"`
	VESPaid     string `json:"ves_paid"`
	USDReceived string `json:"usd_received"`
}

// Build validates the input and produces a transaction stamped with the rate
// in effect on its date. Rules run in order: member first, then the amounts
// for the transaction's type.
//
// For usd_purchase rows the caller's currency and category are ignored: the
// row is always a VES row in the Ahorro category, and its amount duplicates
// ves_paid. For VES income/expense the USD equivalent is computed once here
// and never recomputed, even if the rate registry later changes.
func Build(in Input, rateForDate float64) (*model.Transaction, error) {
	if in.MemberID == 0 {
		return nil, ErrMissingMember
	}

	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	t := &model.Transaction{
		Date:     date.UTC(),
		Type:     model.TransactionType(in.Type),
		Category: in.Category,
		Currency: model.Currency(in.Currency),
		MemberID: in.MemberID,
		Business: in.Business,
		Notes:    in.Notes,
	}

	if t.Type == model.TypeUSDPurchase {
		vesPaid, err1 := strconv.ParseFloat(in.VESPaid, 64)
		usdReceived, err2 := strconv.ParseFloat(in.USDReceived, 64)
		if err1 != nil || err2 != nil || usdReceived == 0 {
			return nil, ErrInvalidPurchaseAmounts
		}
		t.Amount = vesPaid
		t.Currency = model.CurrencyVES
		t.Category = model.CategoryAhorro
		t.VESPaid = &vesPaid
		t.USDReceived = &usdReceived
	} else {
		amount, err := strconv.ParseFloat(in.Amount, 64)
		if err != nil || amount <= 0 {
			return nil, ErrInvalidAmount
		}
		t.Amount = amount
		if t.Currency == model.CurrencyVES {
			usd := amount / rateForDate
			t.AmountUSDComputed = &usd
		}
	}

	t.RateSnapshot = &rateForDate
	return t, nil
}
