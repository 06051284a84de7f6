package store

import (
	"database/sql"
	"fmt"

	"github.com/hogarfin/hogarfin/internal/model"
)

// HouseholdStore manages the single household record and its member list.
type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Username, &h.PINHash, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.Name, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const householdCols = `id, username, pin_hash, created_at, updated_at`
const memberCols = `id, household_id, name, created_at, updated_at`

// Get returns the stored household, or nil when none has been registered.
// The store is single-tenant: at most one row exists.
func (s *HouseholdStore) Get() (*model.Household, error) {
	row := s.db.QueryRow(`SELECT ` + householdCols + ` FROM households LIMIT 1`)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

// Create registers the household, replacing any previously registered one.
// The old household's members and sessions go with it; transactions and rates
// are separate records and survive.
func (s *HouseholdStore) Create(username, pinHash string, memberNames []string) (*model.Household, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM households`); err != nil {
		return nil, fmt.Errorf("clear household: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO households (username, pin_hash) VALUES (?, ?)`,
		username, pinHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, name := range memberNames {
		if _, err := tx.Exec(
			`INSERT INTO household_members (household_id, name) VALUES (?, ?)`,
			id, name,
		); err != nil {
			return nil, fmt.Errorf("insert member %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.Get()
}

// GetByUsername returns the household only if the stored username matches.
func (s *HouseholdStore) GetByUsername(username string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE username = ?`, username)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household by username: %w", err)
	}
	return h, nil
}

// UpdatePINHash overwrites the stored PIN hash unconditionally.
func (s *HouseholdStore) UpdatePINHash(id int64, pinHash string) error {
	_, err := s.db.Exec(
		`UPDATE households SET pin_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		pinHash, id,
	)
	if err != nil {
		return fmt.Errorf("update pin hash: %w", err)
	}
	return nil
}

// ReplaceMembers makes the member list match names exactly. Members whose
// name is already present keep their row and id, so transactions attributed
// to them stay attached; names no longer listed are deleted and new names
// are inserted.
func (s *HouseholdStore) ReplaceMembers(householdID int64, names []string) ([]model.HouseholdMember, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT `+memberCols+` FROM household_members WHERE household_id = ?`, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	existing := make(map[string]int64)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan member: %w", err)
		}
		existing[m.Name] = m.ID
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(names))
	for _, name := range names {
		if keep[name] {
			continue // duplicate names collapse to one member
		}
		keep[name] = true
		if _, ok := existing[name]; ok {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO household_members (household_id, name) VALUES (?, ?)`,
			householdID, name,
		); err != nil {
			return nil, fmt.Errorf("insert member %q: %w", name, err)
		}
	}

	for name, id := range existing {
		if !keep[name] {
			if _, err := tx.Exec(`DELETE FROM household_members WHERE id = ?`, id); err != nil {
				return nil, fmt.Errorf("delete member %q: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.ListMembers(householdID)
}

func (s *HouseholdStore) ListMembers(householdID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM household_members WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *HouseholdStore) GetMember(id int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM household_members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}
