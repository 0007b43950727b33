package db

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/NayabMushtaq/NayMish-blog/internal/models"
)

const (
	postsFile    = "posts.json"
	commentsFile = "comments.json"
	aboutFile    = "about.json"
	adminFile    = "admin.json"
)

// Options tunes a Store. Zero values select the defaults.
type Options struct {
	Logger *slog.Logger
	// Now returns the current time; tests pin it.
	Now func() time.Time
	// NewID returns a fresh record id.
	NewID func() string
}

// Store persists posts, comments and the about page as JSON documents
// inside one data directory.
type Store struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	posts    *Document[[]models.Post]
	comments *Document[[]models.Comment]
	about    *Document[models.About]
	admin    *Document[models.AdminFile]
}

func NewStore(dir string, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Store{
		dir:    dir,
		logger: logger,
		now:    now,
		newID:  newID,
		posts: NewDocument(filepath.Join(dir, postsFile), func() []models.Post {
			return []models.Post{}
		}, logger),
		comments: NewDocument(filepath.Join(dir, commentsFile), func() []models.Comment {
			return []models.Comment{}
		}, logger),
		about: NewDocument(filepath.Join(dir, aboutFile), models.DefaultAbout, logger),
		admin: NewDocument(filepath.Join(dir, adminFile), func() models.AdminFile {
			return models.AdminFile{}
		}, logger),
	}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Init creates any missing documents with their defaults.
func (s *Store) Init() {
	s.posts.Load()
	s.comments.Load()
	s.about.Load()
}
