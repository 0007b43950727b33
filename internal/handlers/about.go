package handlers

import (
	"log/slog"
	"net/http"

	"github.com/NayabMushtaq/NayMish-blog/internal/db"
	"github.com/NayabMushtaq/NayMish-blog/internal/models"
)

type AboutHandler struct {
	store   *db.Store
	logger  *slog.Logger
	maxBody int64
}

func NewAboutHandler(store *db.Store, logger *slog.Logger, maxBody int64) *AboutHandler {
	return &AboutHandler{store: store, logger: logger, maxBody: maxBody}
}

func (h *AboutHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.GetAbout())
}

func (h *AboutHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req models.About
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	about, err := h.store.SetAbout(req)
	if err != nil {
		respondStoreError(w, h.logger, r, "About not found", err)
		return
	}
	respondData(w, about)
}
