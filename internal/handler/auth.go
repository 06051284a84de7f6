package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hogarfin/hogarfin/internal/auth"
	"github.com/hogarfin/hogarfin/internal/middleware"
	"github.com/hogarfin/hogarfin/internal/store"
)

const sessionMaxAge = 90 * 24 * 60 * 60 // seconds, matches the session TTL

type AuthHandler struct {
	households *store.HouseholdStore
	sessions   *store.SessionStore
	logger     *slog.Logger
}

func NewAuthHandler(hs *store.HouseholdStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{households: hs, sessions: ss, logger: logger}
}

type registerRequest struct {
	Username string   `json:"username"`
	PIN      string   `json:"pin"`
	Members  []string `json:"members"`
}

// Register creates the household and opens a session for it. Registering
// again replaces the previous household; existing transactions and rates are
// left alone.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	var members []string
	for _, name := range req.Members {
		if name = strings.TrimSpace(name); name != "" {
			members = append(members, name)
		}
	}
	if len(members) == 0 {
		writeError(w, http.StatusBadRequest, "at least one member name is required")
		return
	}

	pinHash, err := auth.HashPIN(req.PIN)
	if err != nil {
		writeError(w, http.StatusBadRequest, auth.ErrInvalidPIN.Error())
		return
	}

	household, err := h.households.Create(req.Username, pinHash, members)
	if err != nil {
		h.logger.Error("register household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	sess, err := h.sessions.Create(household.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	setSessionCookie(w, r, sess.Token)

	writeJSON(w, http.StatusCreated, household)
}

type loginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

// Login checks username and PIN against the registered household. All
// failures answer the same way so the response does not reveal which part
// was wrong.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	household, err := h.households.GetByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if household == nil || !auth.CheckPIN(household.PINHash, req.PIN) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessions.Create(household.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	setSessionCookie(w, r, sess.Token)

	writeJSON(w, http.StatusOK, household)
}

// Logout deletes the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Session reports the authenticated household, letting clients restore
// state after a reload.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	household, err := h.households.Get()
	if err != nil {
		h.logger.Error("session household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load household")
		return
	}
	if household == nil {
		// Session outlived a household replacement
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}
