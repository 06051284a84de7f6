package model

import "time"

// Household is the single tenant of the tracker. Registration replaces the
// stored household; transactions and rates live in separate records and
// survive re-registration.
type Household struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	PINHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HouseholdMember is a named participant transactions are attributed to.
type HouseholdMember struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
