package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NayabMushtaq/NayMish-blog/internal/db"
	"github.com/NayabMushtaq/NayMish-blog/internal/middleware"
)

type CommentsHandler struct {
	store   *db.Store
	gate    middleware.Gate
	logger  *slog.Logger
	maxBody int64
}

func NewCommentsHandler(store *db.Store, gate middleware.Gate, logger *slog.Logger, maxBody int64) *CommentsHandler {
	return &CommentsHandler{store: store, gate: gate, logger: logger, maxBody: maxBody}
}

type commentRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// ListAll returns every comment; the admin panel uses it for moderation.
func (h *CommentsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.ListComments())
}

func (h *CommentsHandler) ListForPost(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.ListCommentsForPost(chi.URLParam(r, "id")))
}

func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readComment(w, r)
	if !ok {
		return
	}
	comment, err := h.store.CreateComment(db.NewComment{
		PostID:  chi.URLParam(r, "id"),
		Name:    req.Name,
		Text:    req.Text,
		Visitor: middleware.VisitorIP(r),
	})
	if err != nil {
		respondStoreError(w, h.logger, r, "Post not found", err)
		return
	}
	respondData(w, comment)
}

// Update edits a comment's text. The visitor who wrote the comment may
// edit it, as may a request carrying the admin secret.
func (h *CommentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readComment(w, r)
	if !ok {
		return
	}
	comment, err := h.store.UpdateComment(
		chi.URLParam(r, "id"),
		req.Text,
		middleware.VisitorIP(r),
		h.gate.Allowed(r),
	)
	if err != nil {
		respondStoreError(w, h.logger, r, "Comment not found", err)
		return
	}
	respondData(w, comment)
}

func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteComment(chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, h.logger, r, "Comment not found", err)
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *CommentsHandler) readComment(w http.ResponseWriter, r *http.Request) (commentRequest, bool) {
	var req commentRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid body")
			return req, false
		}
		return req, true
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	req.Name = r.PostFormValue("name")
	req.Text = r.PostFormValue("text")
	return req, true
}
