package store

import (
	"database/sql"
	"fmt"

	"github.com/hogarfin/hogarfin/internal/model"
)

// TransactionStore persists the household's transaction list. The observable
// contract is the original whole-list one: List returns entries in insertion
// order, Update replaces exactly the entry with the matching id, Create
// appends.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionCols = `id, date, type, category, amount, currency, member_id,
	business, notes, rate_snapshot, amount_usd_computed, ves_paid, usd_received,
	created_at, updated_at`

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction
	var business, notes sql.NullString
	var rateSnapshot, amountUSD, vesPaid, usdReceived sql.NullFloat64

	err := scanner.Scan(
		&t.ID, &t.Date, &t.Type, &t.Category, &t.Amount, &t.Currency, &t.MemberID,
		&business, &notes, &rateSnapshot, &amountUSD, &vesPaid, &usdReceived,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Business = business.String
	t.Notes = notes.String
	if rateSnapshot.Valid {
		t.RateSnapshot = &rateSnapshot.Float64
	}
	if amountUSD.Valid {
		t.AmountUSDComputed = &amountUSD.Float64
	}
	if vesPaid.Valid {
		t.VESPaid = &vesPaid.Float64
	}
	if usdReceived.Valid {
		t.USDReceived = &usdReceived.Float64
	}
	return &t, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create appends the transaction and returns it with its assigned id.
func (s *TransactionStore) Create(t *model.Transaction) (*model.Transaction, error) {
	result, err := s.db.Exec(
		`INSERT INTO transactions
		 (date, type, category, amount, currency, member_id, business, notes,
		  rate_snapshot, amount_usd_computed, ves_paid, usd_received)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date.UTC(), t.Type, t.Category, t.Amount, t.Currency, t.MemberID,
		nullStr(t.Business), nullStr(t.Notes),
		t.RateSnapshot, t.AmountUSDComputed, t.VESPaid, t.USDReceived,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TransactionStore) GetByID(id int64) (*model.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// Update replaces the stored entry with t's id. The id and the entry's
// position in the list are preserved.
func (s *TransactionStore) Update(t *model.Transaction) (*model.Transaction, error) {
	_, err := s.db.Exec(
		`UPDATE transactions SET
		 date = ?, type = ?, category = ?, amount = ?, currency = ?, member_id = ?,
		 business = ?, notes = ?, rate_snapshot = ?, amount_usd_computed = ?,
		 ves_paid = ?, usd_received = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		t.Date.UTC(), t.Type, t.Category, t.Amount, t.Currency, t.MemberID,
		nullStr(t.Business), nullStr(t.Notes),
		t.RateSnapshot, t.AmountUSDComputed, t.VESPaid, t.USDReceived,
		t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return s.GetByID(t.ID)
}

func (s *TransactionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// List returns every transaction in insertion order.
func (s *TransactionStore) List() ([]model.Transaction, error) {
	rows, err := s.db.Query(`SELECT ` + transactionCols + ` FROM transactions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}
