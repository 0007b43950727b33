package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/NayabMushtaq/NayMish-blog/internal/db"
)

type okResponse struct {
	OK bool `json:"ok"`
}

type dataResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{OK: false, Message: message})
}

func respondData(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, dataResponse{OK: true, Data: data})
}

// respondStoreError maps store errors onto HTTP statuses. Storage
// failures are logged and reported without detail.
func respondStoreError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, notFound string, err error) {
	var validation *db.ValidationError
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, db.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	case errors.Is(err, db.ErrForbidden):
		respondError(w, http.StatusUnauthorized, "Not allowed to edit")
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a JSON body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(v)
}

func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

type pingResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

// Ping reports liveness with the server time.
func Ping(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, pingResponse{OK: true, Time: time.Now().UTC().Format(time.RFC3339Nano)})
}
