package handlers

import (
	"log/slog"
	"net/http"

	"github.com/NayabMushtaq/NayMish-blog/internal/uploads"
)

type UploadHandler struct {
	uploads   *uploads.Store
	logger    *slog.Logger
	maxUpload int64
}

func NewUploadHandler(up *uploads.Store, logger *slog.Logger, maxUpload int64) *UploadHandler {
	return &UploadHandler{uploads: up, logger: logger, maxUpload: maxUpload}
}

type uploadResponse struct {
	OK  bool   `json:"ok"`
	URL string `json:"url"`
}

// Upload stores the multipart "image" file and returns its public URL.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	url, err := h.uploads.Save(files[0])
	if err != nil {
		h.logger.Error("upload failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, uploadResponse{OK: true, URL: url})
}
