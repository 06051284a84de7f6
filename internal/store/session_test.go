package store

import (
	"testing"
	"time"
)

func setupSessionTest(t *testing.T) (*HouseholdStore, *SessionStore) {
	t.Helper()
	db := setupTestDB(t)
	return NewHouseholdStore(db), NewSessionStore(db)
}

func TestSessionCreateAndGetByToken(t *testing.T) {
	hs, ss := setupSessionTest(t)

	h, err := hs.Create("casa", "hash", nil)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	sess, err := ss.Create(h.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.HouseholdID != h.ID {
		t.Errorf("household id = %d, want %d", sess.HouseholdID, h.ID)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("expected session %d, got %+v", sess.ID, got)
	}
}

func TestSessionGetByTokenUnknown(t *testing.T) {
	_, ss := setupSessionTest(t)

	sess, err := ss.GetByToken("nope")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil for unknown token, got %+v", sess)
	}
}

func TestSessionDelete(t *testing.T) {
	hs, ss := setupSessionTest(t)

	h, _ := hs.Create("casa", "hash", nil)
	sess, err := ss.Create(h.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	hs, ss := setupSessionTest(t)

	h, _ := hs.Create("casa", "hash", nil)
	sess, err := ss.Create(h.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Force the session into the past
	if _, err := hs.db.Exec(
		`UPDATE sessions SET expires_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Hour), sess.ID,
	); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expired session should be gone")
	}
}

func TestSessionCascadeOnReRegister(t *testing.T) {
	hs, ss := setupSessionTest(t)

	h, _ := hs.Create("casa", "hash", nil)
	sess, err := ss.Create(h.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := hs.Create("casa", "newhash", nil); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("old sessions should cascade-delete on re-registration")
	}
}
