package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hogarfin/hogarfin/internal/auth"
	"github.com/hogarfin/hogarfin/internal/store"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "hogarfin_session"

// RequireAuth validates the session cookie and populates AuthContext for the
// request. The API is JSON-only, so failures answer 401 instead of
// redirecting.
func RequireAuth(sessions *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				HouseholdID: sess.HouseholdID,
				SessionID:   sess.ID,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
