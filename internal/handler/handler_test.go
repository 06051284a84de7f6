package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"testing"

	"github.com/hogarfin/hogarfin/internal/auth"
	"github.com/hogarfin/hogarfin/internal/database"
	"github.com/hogarfin/hogarfin/internal/store"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// registerHousehold creates a household with one member and returns both ids.
func registerHousehold(t *testing.T, db *sql.DB) (householdID, memberID int64) {
	t.Helper()
	hs := store.NewHouseholdStore(db)
	pinHash, err := auth.HashPIN("1234")
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	h, err := hs.Create("familia", pinHash, []string{"Maria"})
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	members, err := hs.ListMembers(h.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	return h.ID, members[0].ID
}

// authed stamps the request with an authenticated session context.
func authed(r *http.Request, householdID int64) *http.Request {
	ctx := auth.WithAuth(r.Context(), auth.AuthContext{HouseholdID: householdID, SessionID: 1})
	return r.WithContext(ctx)
}

func testLogger() *slog.Logger {
	return slog.Default()
}
