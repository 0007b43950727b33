package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/NayabMushtaq/NayMish-blog/internal/db"
	"github.com/NayabMushtaq/NayMish-blog/internal/middleware"
	"github.com/NayabMushtaq/NayMish-blog/internal/uploads"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling file parts to temp files.
const multipartMemory = 8 << 20

type PostsHandler struct {
	store     *db.Store
	uploads   *uploads.Store
	logger    *slog.Logger
	maxBody   int64
	maxUpload int64
}

func NewPostsHandler(store *db.Store, up *uploads.Store, logger *slog.Logger, maxBody, maxUpload int64) *PostsHandler {
	return &PostsHandler{store: store, uploads: up, logger: logger, maxBody: maxBody, maxUpload: maxUpload}
}

// List returns all posts, newest first. The optional q, category and tag
// parameters filter the list; limit and page paginate it.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := db.PostQuery{
		Q:        strings.TrimSpace(query.Get("q")),
		Category: strings.TrimSpace(query.Get("category")),
		Tag:      strings.TrimSpace(query.Get("tag")),
		Page:     parsePositiveInt(query.Get("page"), 1),
		Limit:    parsePositiveInt(query.Get("limit"), 0),
	}
	posts, total := h.store.QueryPosts(q)
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	respondJSON(w, http.StatusOK, posts)
}

func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.store.GetPost(chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, h.logger, r, "Post not found", err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := h.readPostInput(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.fields["title"]) == "" || strings.TrimSpace(in.fields["content"]) == "" {
		respondError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	mainImage, extraImages, saved, err := h.saveImages(in)
	if err != nil {
		h.logger.Error("save post images", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if mainImage == nil {
		empty := ""
		mainImage = &empty
	}

	post, err := h.store.CreatePost(db.NewPost{
		Title:       in.fields["title"],
		Content:     in.fields["content"],
		Category:    in.fields["category"],
		Tags:        in.fields["tags"],
		MainImage:   *mainImage,
		ExtraImages: extraImages,
	})
	if err != nil {
		h.uploads.Remove(saved...)
		respondStoreError(w, h.logger, r, "Post not found", err)
		return
	}
	respondData(w, post)
}

// Update applies the supplied fields to a post. Empty title, content and
// category values are treated as not supplied; a tags field, even empty,
// replaces the tags.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetPost(id); err != nil {
		respondStoreError(w, h.logger, r, "Post not found", err)
		return
	}

	in, err := h.readPostInput(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var patch db.PostPatch
	for key, dst := range map[string]**string{
		"title":    &patch.Title,
		"content":  &patch.Content,
		"category": &patch.Category,
	} {
		if v := in.fields[key]; strings.TrimSpace(v) != "" {
			*dst = &v
		}
	}
	if tags, ok := in.fields["tags"]; ok {
		patch.Tags = &tags
	}

	var saved []string
	patch.MainImage, patch.ExtraImages, saved, err = h.saveImages(in)
	if err != nil {
		h.logger.Error("save post images", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	post, err := h.store.UpdatePost(id, patch)
	if err != nil {
		h.uploads.Remove(saved...)
		respondStoreError(w, h.logger, r, "Post not found", err)
		return
	}
	respondData(w, post)
}

func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePost(chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, h.logger, r, "Post not found", err)
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *PostsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.ListCategories())
}

type likeResponse struct {
	OK    bool `json:"ok"`
	Likes int  `json:"likes"`
}

// Like toggles the caller's like on a post.
func (h *PostsHandler) Like(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.ToggleLike(chi.URLParam(r, "id"), middleware.VisitorIP(r))
	if err != nil {
		respondStoreError(w, h.logger, r, "Post not found", err)
		return
	}
	respondJSON(w, http.StatusOK, likeResponse{OK: true, Likes: count})
}

// postInput is a create or update request after parsing. fields only
// holds the text fields the client actually sent.
type postInput struct {
	fields      map[string]string
	mainImage   *string
	extraImages []string
	mainFile    *multipart.FileHeader
	extraFiles  []*multipart.FileHeader
}

type postJSON struct {
	Title       *string         `json:"title"`
	Content     *string         `json:"content"`
	Category    *string         `json:"category"`
	Tags        json.RawMessage `json:"tags"`
	MainImage   *string         `json:"mainImage"`
	ExtraImages []string        `json:"extraImages"`
}

// readPostInput accepts multipart, urlencoded or JSON bodies. JSON
// bodies may reference images already stored through /api/upload.
func (h *PostsHandler) readPostInput(w http.ResponseWriter, r *http.Request) (postInput, error) {
	in := postInput{fields: map[string]string{}}

	if isJSON(r) {
		var body postJSON
		if err := decodeJSON(w, r, h.maxBody, &body); err != nil {
			return in, errors.New("invalid body")
		}
		for key, v := range map[string]*string{"title": body.Title, "content": body.Content, "category": body.Category} {
			if v != nil {
				in.fields[key] = *v
			}
		}
		if len(body.Tags) > 0 && string(body.Tags) != "null" {
			tags, err := decodeTags(body.Tags)
			if err != nil {
				return in, err
			}
			in.fields["tags"] = tags
		}
		in.mainImage = body.MainImage
		in.extraImages = body.ExtraImages
		return in, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return in, fmt.Errorf("invalid form: %v", err)
	}
	for _, key := range []string{"title", "content", "category", "tags"} {
		if values, ok := r.PostForm[key]; ok && len(values) > 0 {
			in.fields[key] = values[0]
		}
	}
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["mainImage"]; len(files) > 0 {
			in.mainFile = files[0]
		}
		in.extraFiles = r.MultipartForm.File["extraImages"]
	}
	return in, nil
}

// decodeTags accepts either a comma separated string or an array of strings.
func decodeTags(raw json.RawMessage) (string, error) {
	var csv string
	if err := json.Unmarshal(raw, &csv); err == nil {
		return csv, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", errors.New("tags must be a string or an array of strings")
	}
	return strings.Join(list, ","), nil
}

// saveImages stores uploaded image files and merges them with image
// paths given directly in the request. The last result lists only the
// files written by this call.
func (h *PostsHandler) saveImages(in postInput) (*string, []string, []string, error) {
	var saved []string
	mainImage := in.mainImage
	if in.mainFile != nil {
		p, err := h.uploads.Save(in.mainFile)
		if err != nil {
			return nil, nil, nil, err
		}
		mainImage = &p
		saved = append(saved, p)
	}
	stored, err := h.uploads.SaveAll(in.extraFiles)
	saved = append(saved, stored...)
	if err != nil {
		h.uploads.Remove(saved...)
		return nil, nil, nil, err
	}
	extra := append(append([]string{}, in.extraImages...), stored...)
	return mainImage, extra, saved, nil
}
