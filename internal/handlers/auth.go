package handlers

import (
	"net/http"
	"strings"

	"github.com/NayabMushtaq/NayMish-blog/internal/middleware"
)

type LoginRequest struct {
	Password string `json:"password"`
}

type AuthHandler struct {
	gate    middleware.Gate
	maxBody int64
}

func NewAuthHandler(gate middleware.Gate, maxBody int64) *AuthHandler {
	return &AuthHandler{gate: gate, maxBody: maxBody}
}

// Login checks the admin password. Nothing is issued on success; the
// admin client sends the password with every admin request.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid body")
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
		req.Password = r.PostFormValue("password")
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "Missing password")
		return
	}
	if !h.gate.Check(req.Password) {
		respondError(w, http.StatusUnauthorized, "Incorrect password")
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}
