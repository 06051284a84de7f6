package model

import "time"

type Currency string

const (
	CurrencyVES Currency = "VES"
	CurrencyUSD Currency = "USD"
)

type TransactionType string

const (
	TypeIncome      TransactionType = "income"
	TypeExpense     TransactionType = "expense"
	TypeUSDPurchase TransactionType = "usd_purchase"
)

// CategoryAhorro is forced onto every usd_purchase transaction.
const CategoryAhorro = "Ahorro"

// DefaultCategories are the categories offered for income and expense rows.
var DefaultCategories = []string{
	"Comida", "Servicios", "Ocio", "Salud", "Hogar", "Nómina", "Otros",
}

// Transaction is one ledger entry. For usd_purchase rows Amount duplicates
// VESPaid; the real amounts are VESPaid/USDReceived and the row always has
// Currency VES and the Ahorro category.
type Transaction struct {
	ID       int64           `json:"id"`
	Date     time.Time       `json:"date"`
	Type     TransactionType `json:"type"`
	Category string          `json:"category"`
	Amount   float64         `json:"amount"`
	Currency Currency        `json:"currency"`
	MemberID int64           `json:"member_id"`
	Business string          `json:"business,omitempty"`
	Notes    string          `json:"notes,omitempty"`

	// RateSnapshot is the VES/USD rate in effect on Date at save time.
	// Never recomputed after the fact.
	RateSnapshot *float64 `json:"rate_snapshot,omitempty"`
	// AmountUSDComputed is set only for VES income/expense rows.
	AmountUSDComputed *float64 `json:"amount_usd_computed,omitempty"`
	VESPaid           *float64 `json:"ves_paid,omitempty"`
	USDReceived       *float64 `json:"usd_received,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
