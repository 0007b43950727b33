package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NayabMushtaq/NayMish-blog/internal/config"
	"github.com/NayabMushtaq/NayMish-blog/internal/db"
	"github.com/NayabMushtaq/NayMish-blog/internal/middleware"
	"github.com/NayabMushtaq/NayMish-blog/internal/models"
	"github.com/NayabMushtaq/NayMish-blog/internal/uploads"
)

const testSecret = "letmein"

type testAPI struct {
	t          *testing.T
	router     http.Handler
	store      *db.Store
	uploadsDir string
}

func newTestAPI(t *testing.T, opts ...func(*config.Config)) *testAPI {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.AdminPass = testSecret
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.UploadsDir = filepath.Join(dir, "uploads")
	cfg.PublicDir = ""
	cfg.PrivateDir = ""
	for _, opt := range opts {
		opt(&cfg)
	}

	store := db.NewStore(cfg.DataDir, db.Options{Logger: logger})
	router := NewRouter(Deps{
		Config:  cfg,
		Store:   store,
		Uploads: uploads.NewStore(cfg.UploadsDir, logger),
		Logger:  logger,
	})
	return &testAPI{t: t, router: router, store: store, uploadsDir: cfg.UploadsDir}
}

type requestOption func(*http.Request)

func asAdmin(r *http.Request) { r.Header.Set(middleware.AdminHeader, testSecret) }

func fromVisitor(ip string) requestOption {
	return func(r *http.Request) { r.RemoteAddr = ip + ":40000" }
}

func (a *testAPI) do(method, path string, body io.Reader, contentType string, opts ...requestOption) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) doJSON(method, path string, payload any, opts ...requestOption) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			a.t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	return a.do(method, path, body, "application/json", opts...)
}

// multipartBody encodes fields and files; files maps a field name to
// file names whose content is the file name itself.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for field, names := range files {
		for _, name := range names {
			part, err := mw.CreateFormFile(field, name)
			if err != nil {
				t.Fatal(err)
			}
			_, _ = io.WriteString(part, name)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
}

type postEnvelope struct {
	OK   bool        `json:"ok"`
	Data models.Post `json:"data"`
}

type commentEnvelope struct {
	OK   bool           `json:"ok"`
	Data models.Comment `json:"data"`
}

func (a *testAPI) createPost(fields map[string]string, files map[string][]string) models.Post {
	a.t.Helper()
	body, ct := multipartBody(a.t, fields, files)
	rec := a.do(http.MethodPost, "/api/posts", body, ct, asAdmin)
	expectStatus(a.t, rec, http.StatusOK)
	return decode[postEnvelope](a.t, rec).Data
}

func TestPing(t *testing.T) {
	api := newTestAPI(t)
	for _, path := range []string{"/api/ping", "/health"} {
		rec := api.do(http.MethodGet, path, nil, "")
		expectStatus(t, rec, http.StatusOK)
		got := decode[pingResponse](t, rec)
		if !got.OK || got.Time == "" {
			t.Errorf("%s = %+v", path, got)
		}
	}
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.doJSON(http.MethodPost, "/api/login", LoginRequest{Password: "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)
	if got := decode[errorResponse](t, rec); got.OK || got.Message == "" {
		t.Errorf("wrong password body = %+v", got)
	}

	rec = api.doJSON(http.MethodPost, "/api/login", LoginRequest{Password: testSecret})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[okResponse](t, rec); !got.OK {
		t.Errorf("login body = %+v", got)
	}

	rec = api.doJSON(http.MethodPost, "/api/login", map[string]string{})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = api.do(http.MethodPost, "/api/login", strings.NewReader("password="+testSecret), "application/x-www-form-urlencoded")
	expectStatus(t, rec, http.StatusOK)
}

func TestAdminRoutesRequireSecret(t *testing.T) {
	api := newTestAPI(t)
	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/posts"},
		{http.MethodPut, "/api/posts/x"},
		{http.MethodDelete, "/api/posts/x"},
		{http.MethodGet, "/api/comments"},
		{http.MethodDelete, "/api/comments/x"},
		{http.MethodPost, "/api/about"},
		{http.MethodPost, "/api/upload"},
	}
	for _, route := range routes {
		rec := api.do(route.method, route.path, nil, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without secret = %d, want 401", route.method, route.path, rec.Code)
		}
		rec = api.do(route.method, route.path, nil, "", func(r *http.Request) {
			r.Header.Set(middleware.AdminHeader, "wrong")
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with wrong secret = %d, want 401", route.method, route.path, rec.Code)
		}
	}
}

func TestPostLifecycle(t *testing.T) {
	api := newTestAPI(t)

	first := api.createPost(map[string]string{"title": "A", "content": "B"}, nil)
	if first.Category != models.DefaultCategory || first.MainImage != "" || len(first.ExtraImages) != 0 {
		t.Fatalf("first post = %+v", first)
	}

	second := api.createPost(
		map[string]string{"title": "C", "content": "D", "category": "Travel", "tags": "sea, sun,"},
		map[string][]string{"mainImage": {"cover.png"}, "extraImages": {"one.jpg", "two.jpg"}},
	)
	if !strings.HasPrefix(second.MainImage, uploads.PublicPrefix) || len(second.ExtraImages) != 2 {
		t.Fatalf("images not stored: %+v", second)
	}
	if strings.Join(second.Tags, "|") != "sea|sun" {
		t.Fatalf("tags = %v", second.Tags)
	}

	rec := api.do(http.MethodGet, "/api/posts", nil, "")
	expectStatus(t, rec, http.StatusOK)
	posts := decode[[]models.Post](t, rec)
	if len(posts) != 2 || posts[0].Title != "C" || posts[1].Title != "A" {
		t.Fatalf("list = %+v, want [C, A]", posts)
	}
	if rec.Header().Get("X-Total-Count") != "2" {
		t.Errorf("X-Total-Count = %q", rec.Header().Get("X-Total-Count"))
	}

	rec = api.do(http.MethodGet, "/api/posts?category=travel", nil, "")
	if got := decode[[]models.Post](t, rec); len(got) != 1 || got[0].ID != second.ID {
		t.Fatalf("category filter = %+v", got)
	}

	// Uploaded images are served back.
	rec = api.do(http.MethodGet, second.MainImage, nil, "")
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "cover.png" {
		t.Errorf("served image = %q", rec.Body.String())
	}

	rec = api.do(http.MethodGet, "/api/posts/"+first.ID, nil, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Post](t, rec); got.ID != first.ID {
		t.Fatalf("get = %+v", got)
	}
	expectStatus(t, api.do(http.MethodGet, "/api/posts/missing", nil, ""), http.StatusNotFound)

	body, ct := multipartBody(t, map[string]string{"title": "A2", "content": "", "tags": "x"}, map[string][]string{"mainImage": {"new.png"}})
	rec = api.do(http.MethodPut, "/api/posts/"+first.ID, body, ct, asAdmin)
	expectStatus(t, rec, http.StatusOK)
	updated := decode[postEnvelope](t, rec).Data
	if updated.Title != "A2" || updated.Content != "B" || strings.Join(updated.Tags, ",") != "x" || updated.MainImage == "" {
		t.Fatalf("updated = %+v", updated)
	}

	body, ct = multipartBody(t, map[string]string{"title": "nope"}, nil)
	expectStatus(t, api.do(http.MethodPut, "/api/posts/missing", body, ct, asAdmin), http.StatusNotFound)

	rec = api.do(http.MethodGet, "/api/categories", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]string](t, rec); strings.Join(got, ",") != "Travel,"+models.DefaultCategory {
		t.Fatalf("categories = %v", got)
	}
}

func TestCreatePostValidation(t *testing.T) {
	api := newTestAPI(t)
	body, ct := multipartBody(t, map[string]string{"title": "only title"}, nil)
	rec := api.do(http.MethodPost, "/api/posts", body, ct, asAdmin)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = api.do(http.MethodGet, "/api/posts", nil, "")
	if got := decode[[]models.Post](t, rec); len(got) != 0 {
		t.Fatalf("posts after failed create = %+v", got)
	}
}

func TestCreatePostJSON(t *testing.T) {
	api := newTestAPI(t)
	rec := api.doJSON(http.MethodPost, "/api/posts", map[string]any{
		"title":     "JSON",
		"content":   "body",
		"tags":      []string{"a", " b "},
		"mainImage": "/uploads/existing.png",
	}, asAdmin)
	expectStatus(t, rec, http.StatusOK)
	post := decode[postEnvelope](t, rec).Data
	if strings.Join(post.Tags, ",") != "a,b" || post.MainImage != "/uploads/existing.png" {
		t.Fatalf("post = %+v", post)
	}
}

func TestLikeToggle(t *testing.T) {
	api := newTestAPI(t)
	post := api.createPost(map[string]string{"title": "A", "content": "B"}, nil)
	path := "/api/posts/" + post.ID + "/like"

	likes := func(opts ...requestOption) int {
		rec := api.do(http.MethodPost, path, nil, "", opts...)
		expectStatus(t, rec, http.StatusOK)
		return decode[likeResponse](t, rec).Likes
	}

	if n := likes(fromVisitor("10.0.0.1")); n != 1 {
		t.Fatalf("like = %d", n)
	}
	if n := likes(fromVisitor("10.0.0.2")); n != 2 {
		t.Fatalf("second visitor like = %d", n)
	}
	if n := likes(fromVisitor("10.0.0.1")); n != 1 {
		t.Fatalf("unlike = %d", n)
	}
	expectStatus(t, api.do(http.MethodPost, "/api/posts/missing/like", nil, ""), http.StatusNotFound)
}

func TestLikeUsesForwardedFor(t *testing.T) {
	api := newTestAPI(t)
	post := api.createPost(map[string]string{"title": "A", "content": "B"}, nil)
	path := "/api/posts/" + post.ID + "/like"
	forwarded := func(r *http.Request) {
		r.RemoteAddr = "10.0.0.1:40000"
		r.Header.Set("X-Forwarded-For", "5.5.5.5, 10.0.0.1")
	}

	rec := api.do(http.MethodPost, path, nil, "", forwarded)
	expectStatus(t, rec, http.StatusOK)
	if n := decode[likeResponse](t, rec).Likes; n != 1 {
		t.Fatalf("like = %d", n)
	}
	stored, err := api.store.GetPost(post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Likes) != 1 || stored.Likes[0] != "5.5.5.5" {
		t.Fatalf("likes = %v, want the first forwarded address", stored.Likes)
	}

	rec = api.do(http.MethodPost, path, nil, "", forwarded)
	expectStatus(t, rec, http.StatusOK)
	if n := decode[likeResponse](t, rec).Likes; n != 0 {
		t.Fatalf("unlike = %d", n)
	}
	if stored, _ = api.store.GetPost(post.ID); len(stored.Likes) != 0 {
		t.Fatalf("likes after unlike = %v", stored.Likes)
	}
}

func TestStorageFailureIsInternalError(t *testing.T) {
	api := newTestAPI(t, func(cfg *config.Config) {
		blocker := filepath.Join(filepath.Dir(cfg.DataDir), "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg.DataDir = filepath.Join(blocker, "data")
	})

	body, ct := multipartBody(t, map[string]string{"title": "A", "content": "B"}, map[string][]string{"mainImage": {"cover.png"}})
	rec := api.do(http.MethodPost, "/api/posts", body, ct, asAdmin)
	expectStatus(t, rec, http.StatusInternalServerError)
	if rec.Body.String() != "{\"ok\":false,\"message\":\"internal error\"}\n" {
		t.Fatalf("body = %s", rec.Body.String())
	}

	// Images saved for the failed write are removed again.
	entries, err := os.ReadDir(api.uploadsDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("uploads left behind: %v", entries)
	}
}

func TestAdminPanel(t *testing.T) {
	private := t.TempDir()
	if err := os.WriteFile(filepath.Join(private, "admin.html"), []byte("<h1>admin</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	api := newTestAPI(t, func(cfg *config.Config) { cfg.PrivateDir = private })

	rec := api.do(http.MethodGet, AdminPanelPrefix+"/admin.html", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "<h1>admin</h1>" {
		t.Fatalf("admin panel = %q", rec.Body.String())
	}
	rec = api.do(http.MethodGet, AdminPanelPrefix, nil, "")
	expectStatus(t, rec, http.StatusMovedPermanently)

	expectStatus(t, newTestAPI(t).do(http.MethodGet, AdminPanelPrefix+"/admin.html", nil, ""), http.StatusNotFound)
}

func TestCommentsFlow(t *testing.T) {
	api := newTestAPI(t)
	post := api.createPost(map[string]string{"title": "A", "content": "B"}, nil)
	other := api.createPost(map[string]string{"title": "C", "content": "D"}, nil)

	rec := api.doJSON(http.MethodPost, "/api/comments/missing", commentRequest{Text: "hi"})
	expectStatus(t, rec, http.StatusBadRequest)
	rec = api.doJSON(http.MethodPost, "/api/comments/"+post.ID, commentRequest{Name: "Ann"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = api.doJSON(http.MethodPost, "/api/comments/"+post.ID, commentRequest{Text: "hello"}, fromVisitor("10.0.0.1"))
	expectStatus(t, rec, http.StatusOK)
	comment := decode[commentEnvelope](t, rec).Data
	if comment.Name != models.DefaultCommentName || comment.IP != "10.0.0.1" || comment.PostID != post.ID {
		t.Fatalf("comment = %+v", comment)
	}
	api.doJSON(http.MethodPost, "/api/comments/"+other.ID, commentRequest{Text: "elsewhere"}, fromVisitor("10.0.0.3"))

	rec = api.do(http.MethodGet, "/api/comments/"+post.ID, nil, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]models.Comment](t, rec); len(got) != 1 || got[0].ID != comment.ID {
		t.Fatalf("comments for post = %+v", got)
	}

	editPath := "/api/comments/" + comment.ID
	expectStatus(t, api.doJSON(http.MethodPut, editPath, commentRequest{Text: "by stranger"}, fromVisitor("10.0.0.9")), http.StatusUnauthorized)
	expectStatus(t, api.doJSON(http.MethodPut, editPath, commentRequest{Text: ""}, fromVisitor("10.0.0.1")), http.StatusBadRequest)
	expectStatus(t, api.doJSON(http.MethodPut, "/api/comments/missing", commentRequest{Text: "x"}, fromVisitor("10.0.0.1")), http.StatusNotFound)

	rec = api.doJSON(http.MethodPut, editPath, commentRequest{Text: "by author"}, fromVisitor("10.0.0.1"))
	expectStatus(t, rec, http.StatusOK)
	if got := decode[commentEnvelope](t, rec).Data; got.Text != "by author" {
		t.Fatalf("author edit = %+v", got)
	}
	rec = api.doJSON(http.MethodPut, editPath, commentRequest{Text: "by admin"}, fromVisitor("10.0.0.9"), asAdmin)
	expectStatus(t, rec, http.StatusOK)

	rec = api.do(http.MethodGet, "/api/comments", nil, "", asAdmin)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]models.Comment](t, rec); len(got) != 2 {
		t.Fatalf("all comments = %+v", got)
	}

	// The author may edit but not delete.
	expectStatus(t, api.do(http.MethodDelete, editPath, nil, "", fromVisitor("10.0.0.1")), http.StatusUnauthorized)
	expectStatus(t, api.do(http.MethodDelete, editPath, nil, "", asAdmin), http.StatusOK)
	expectStatus(t, api.do(http.MethodDelete, editPath, nil, "", asAdmin), http.StatusNotFound)

	// Deleting a post removes its comments only.
	api.doJSON(http.MethodPost, "/api/comments/"+post.ID, commentRequest{Text: "again"})
	expectStatus(t, api.do(http.MethodDelete, "/api/posts/"+post.ID, nil, "", asAdmin), http.StatusOK)
	rec = api.do(http.MethodGet, "/api/comments", nil, "", asAdmin)
	if got := decode[[]models.Comment](t, rec); len(got) != 1 || got[0].PostID != other.ID {
		t.Fatalf("comments after post delete = %+v", got)
	}
	expectStatus(t, api.do(http.MethodDelete, "/api/posts/"+post.ID, nil, "", asAdmin), http.StatusNotFound)
}

func TestAbout(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/about", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "{\"text\":\"\",\"email\":\"\",\"social\":{}}\n" {
		t.Fatalf("default about = %s", rec.Body.String())
	}

	api.doJSON(http.MethodPost, "/api/about", models.About{Text: "bio", Social: map[string]string{"github": "y"}}, asAdmin)
	rec = api.doJSON(http.MethodPost, "/api/about", models.About{Text: "new", Social: map[string]string{"twitter": "x"}}, asAdmin)
	expectStatus(t, rec, http.StatusOK)

	rec = api.do(http.MethodGet, "/api/about", nil, "")
	got := decode[models.About](t, rec)
	if got.Text != "new" || got.Social["twitter"] != "x" {
		t.Fatalf("about = %+v", got)
	}
	if _, ok := got.Social["github"]; ok {
		t.Fatalf("social links were merged: %+v", got.Social)
	}
}

func TestUpload(t *testing.T) {
	api := newTestAPI(t)

	body, ct := multipartBody(t, nil, map[string][]string{"image": {"pic.gif"}})
	rec := api.do(http.MethodPost, "/api/upload", body, ct, asAdmin)
	expectStatus(t, rec, http.StatusOK)
	got := decode[uploadResponse](t, rec)
	if !got.OK || !strings.HasPrefix(got.URL, uploads.PublicPrefix) || !strings.HasSuffix(got.URL, ".gif") {
		t.Fatalf("upload = %+v", got)
	}

	rec = api.do(http.MethodGet, got.URL, nil, "")
	expectStatus(t, rec, http.StatusOK)

	body, ct = multipartBody(t, map[string]string{"note": "no file"}, nil)
	expectStatus(t, api.do(http.MethodPost, "/api/upload", body, ct, asAdmin), http.StatusBadRequest)
}
