package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// AdminHeader carries the plaintext admin secret on admin requests.
const AdminHeader = "X-Admin-Pass"

// Gate compares caller-supplied secrets against the configured admin
// secret. The comparison is plain equality; there is no hashing,
// lockout or throttling.
type Gate struct {
	secret string
}

func NewGate(secret string) Gate {
	return Gate{secret: secret}
}

// Check reports whether supplied is the admin secret.
func (g Gate) Check(supplied string) bool {
	if supplied == "" || g.secret == "" {
		return false
	}
	return supplied == g.secret
}

// Allowed reports whether r carries the admin secret, either in
// X-Admin-Pass or as an Authorization bearer value.
func (g Gate) Allowed(r *http.Request) bool {
	return g.Check(secretFromRequest(r))
}

// Require rejects requests that do not carry the admin secret.
func (g Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		supplied := secretFromRequest(r)
		if supplied == "" {
			unauthorized(w, "Missing admin password header")
			return
		}
		if !g.Check(supplied) {
			unauthorized(w, "Invalid admin password")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secretFromRequest(r *http.Request) string {
	if pass := r.Header.Get(AdminHeader); pass != "" {
		return pass
	}
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "message": message})
}
