package db

import (
	"fmt"
	"slices"
	"strings"

	"github.com/NayabMushtaq/NayMish-blog/internal/models"
)

// NewPost carries the fields accepted when creating a post.
type NewPost struct {
	Title       string
	Content     string
	Category    string
	Tags        string // comma separated
	MainImage   string
	ExtraImages []string
}

// PostPatch carries the fields of a partial post update. Nil fields keep
// their stored value.
type PostPatch struct {
	Title     *string
	Content   *string
	Category  *string
	Tags      *string // comma separated; empty clears the tags
	MainImage *string
	// ExtraImages are appended to the stored extra images.
	ExtraImages []string
}

// PostQuery filters ListPosts results. Zero values match everything.
type PostQuery struct {
	Q        string
	Category string
	Tag      string
	Page     int
	Limit    int
}

const maxPageLimit = 100

// ParseTags splits a comma separated tag list, trimming entries and
// dropping empty ones.
func ParseTags(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// ListPosts returns every post, newest first.
func (s *Store) ListPosts() []models.Post {
	posts := s.posts.Load()
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, normalizePost(p))
	}
	return out
}

// QueryPosts returns the posts matching q and the number of matches
// before pagination.
func (s *Store) QueryPosts(q PostQuery) ([]models.Post, int) {
	all := s.ListPosts()
	matched := make([]models.Post, 0, len(all))
	for _, p := range all {
		if matchesQuery(p, q) {
			matched = append(matched, p)
		}
	}
	total := len(matched)

	if q.Limit <= 0 {
		return matched, total
	}
	limit := min(q.Limit, maxPageLimit)
	page := max(q.Page, 1)
	offset := (page - 1) * limit
	if offset >= total {
		return []models.Post{}, total
	}
	end := min(offset+limit, total)
	return matched[offset:end], total
}

func matchesQuery(p models.Post, q PostQuery) bool {
	if q.Category != "" && !strings.EqualFold(p.CategoryOrDefault(), q.Category) {
		return false
	}
	if q.Tag != "" && !slices.ContainsFunc(p.Tags, func(t string) bool {
		return strings.EqualFold(t, q.Tag)
	}) {
		return false
	}
	if q.Q == "" {
		return true
	}
	needle := strings.ToLower(q.Q)
	if strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle) {
		return true
	}
	return slices.ContainsFunc(p.Tags, func(t string) bool {
		return strings.Contains(strings.ToLower(t), needle)
	})
}

func (s *Store) GetPost(id string) (models.Post, error) {
	for _, p := range s.posts.Load() {
		if p.ID == id {
			return normalizePost(p), nil
		}
	}
	return models.Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
}

// CreatePost validates in and stores the new post at the front of the
// collection.
func (s *Store) CreatePost(in NewPost) (models.Post, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return models.Post{}, invalid("title and content are required")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	extra := make([]string, 0, len(in.ExtraImages))
	extra = append(extra, in.ExtraImages...)

	now := s.now()
	post := models.Post{
		ID:          s.newID(),
		Title:       in.Title,
		Content:     in.Content,
		Category:    category,
		Tags:        ParseTags(in.Tags),
		MainImage:   in.MainImage,
		ExtraImages: extra,
		Likes:       []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.posts.Update(func(posts *[]models.Post) error {
		*posts = append([]models.Post{post}, *posts...)
		return nil
	})
	if err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// UpdatePost applies the non-nil fields of patch to the post.
func (s *Store) UpdatePost(id string, patch PostPatch) (models.Post, error) {
	var updated models.Post
	err := s.posts.Update(func(posts *[]models.Post) error {
		idx := slices.IndexFunc(*posts, func(p models.Post) bool { return p.ID == id })
		if idx < 0 {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		p := normalizePost((*posts)[idx])
		if patch.Title != nil {
			p.Title = *patch.Title
		}
		if patch.Content != nil {
			p.Content = *patch.Content
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.Tags != nil {
			p.Tags = ParseTags(*patch.Tags)
		}
		if patch.MainImage != nil {
			p.MainImage = *patch.MainImage
		}
		p.ExtraImages = append(p.ExtraImages, patch.ExtraImages...)
		p.UpdatedAt = s.now()
		(*posts)[idx] = p
		updated = p
		return nil
	})
	if err != nil {
		return models.Post{}, fmt.Errorf("update post: %w", err)
	}
	return updated, nil
}

// DeletePost removes the post and every comment attached to it.
func (s *Store) DeletePost(id string) error {
	err := s.posts.Update(func(posts *[]models.Post) error {
		before := len(*posts)
		*posts = slices.DeleteFunc(*posts, func(p models.Post) bool { return p.ID == id })
		if len(*posts) == before {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	err = s.comments.Update(func(comments *[]models.Comment) error {
		*comments = slices.DeleteFunc(*comments, func(c models.Comment) bool { return c.PostID == id })
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete comments of post %s: %w", id, err)
	}
	return nil
}

// ToggleLike adds visitor to the post's likes, or removes it when
// already present, and returns the resulting like count.
func (s *Store) ToggleLike(id, visitor string) (int, error) {
	var count int
	err := s.posts.Update(func(posts *[]models.Post) error {
		idx := slices.IndexFunc(*posts, func(p models.Post) bool { return p.ID == id })
		if idx < 0 {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		p := &(*posts)[idx]
		if i := slices.Index(p.Likes, visitor); i >= 0 {
			p.Likes = slices.Delete(p.Likes, i, i+1)
		} else {
			p.Likes = append(p.Likes, visitor)
		}
		if p.Likes == nil {
			p.Likes = []string{}
		}
		count = p.LikeCount()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("toggle like: %w", err)
	}
	return count, nil
}

// ListCategories returns the distinct post categories in first-seen order.
func (s *Store) ListCategories() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range s.posts.Load() {
		c := p.CategoryOrDefault()
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// normalizePost fills the collections of legacy records so they encode
// as empty arrays rather than null.
func normalizePost(p models.Post) models.Post {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.ExtraImages == nil {
		p.ExtraImages = []string{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	return p
}
