package handlers

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/NayabMushtaq/NayMish-blog/internal/config"
	"github.com/NayabMushtaq/NayMish-blog/internal/db"
	"github.com/NayabMushtaq/NayMish-blog/internal/middleware"
	"github.com/NayabMushtaq/NayMish-blog/internal/uploads"
)

// AdminPanelPrefix is where the admin panel's static files are served.
// The panel itself asks for the admin password before calling the API.
const AdminPanelPrefix = "/secret-admin"

type Deps struct {
	Config  config.Config
	Store   *db.Store
	Uploads *uploads.Store
	Logger  *slog.Logger
}

// NewRouter wires the API routes, the uploads file server and, when their
// directories exist, the admin panel and the public site.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestLogger(&chimiddleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.AdminHeader},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	gate := middleware.NewGate(cfg.AdminPass)
	visitorLimiter := middleware.NewRateLimiter(cfg.VisitorWriteLimit, cfg.VisitorWriteWindow)

	authHandler := NewAuthHandler(gate, cfg.MaxBodyBytes)
	postsHandler := NewPostsHandler(deps.Store, deps.Uploads, logger, cfg.MaxBodyBytes, cfg.MaxUploadBytes)
	commentsHandler := NewCommentsHandler(deps.Store, gate, logger, cfg.MaxBodyBytes)
	aboutHandler := NewAboutHandler(deps.Store, logger, cfg.MaxBodyBytes)
	uploadHandler := NewUploadHandler(deps.Uploads, logger, cfg.MaxUploadBytes)

	r.Get("/health", Ping)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", Ping)
		r.Post("/login", authHandler.Login)

		r.Get("/posts", postsHandler.List)
		r.Get("/posts/{id}", postsHandler.Get)
		r.Get("/categories", postsHandler.Categories)
		r.With(visitorLimiter.Limit).Post("/posts/{id}/like", postsHandler.Like)

		r.Get("/about", aboutHandler.Get)

		// Comment routes share one parameter name; on GET and POST it is
		// the post id, on PUT and DELETE the comment id.
		r.Get("/comments/{id}", commentsHandler.ListForPost)
		r.With(visitorLimiter.Limit).Post("/comments/{id}", commentsHandler.Create)
		r.With(visitorLimiter.Limit).Put("/comments/{id}", commentsHandler.Update)

		r.Group(func(r chi.Router) {
			r.Use(gate.Require)
			r.Post("/posts", postsHandler.Create)
			r.Put("/posts/{id}", postsHandler.Update)
			r.Delete("/posts/{id}", postsHandler.Delete)

			r.Get("/comments", commentsHandler.ListAll)
			r.Delete("/comments/{id}", commentsHandler.Delete)

			r.Post("/about", aboutHandler.Set)
			r.Post("/upload", uploadHandler.Upload)
		})
	})

	if deps.Uploads != nil {
		r.Handle(uploads.PublicPrefix+"*", http.StripPrefix(uploads.PublicPrefix, http.FileServer(http.Dir(deps.Uploads.Dir()))))
	}
	if isDir(cfg.PrivateDir) {
		r.Get(AdminPanelPrefix, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, AdminPanelPrefix+"/", http.StatusMovedPermanently)
		})
		r.Handle(AdminPanelPrefix+"/*", http.StripPrefix(AdminPanelPrefix, http.FileServer(http.Dir(cfg.PrivateDir))))
	}
	if isDir(cfg.PublicDir) {
		r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))
	}

	return r
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
