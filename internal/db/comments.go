package db

import (
	"fmt"
	"slices"
	"strings"

	"github.com/NayabMushtaq/NayMish-blog/internal/models"
)

// NewComment carries a visitor's comment submission.
type NewComment struct {
	PostID  string
	Name    string
	Text    string
	Visitor string
}

// ListComments returns every stored comment in insertion order.
func (s *Store) ListComments() []models.Comment {
	comments := s.comments.Load()
	if comments == nil {
		return []models.Comment{}
	}
	return comments
}

// ListCommentsForPost returns the comments attached to postID.
func (s *Store) ListCommentsForPost(postID string) []models.Comment {
	out := []models.Comment{}
	for _, c := range s.comments.Load() {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out
}

// CreateComment appends a comment to an existing post.
func (s *Store) CreateComment(in NewComment) (models.Comment, error) {
	if strings.TrimSpace(in.Text) == "" {
		return models.Comment{}, invalid("text is required")
	}
	if _, err := s.GetPost(in.PostID); err != nil {
		return models.Comment{}, invalid("invalid postId")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = models.DefaultCommentName
	}

	now := s.now()
	comment := models.Comment{
		ID:        s.newID(),
		PostID:    in.PostID,
		Name:      name,
		Text:      in.Text,
		IP:        in.Visitor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.comments.Update(func(comments *[]models.Comment) error {
		*comments = append(*comments, comment)
		return nil
	})
	if err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// UpdateComment replaces the text of a comment. Only the visitor that
// wrote it, or an admin, may do so.
func (s *Store) UpdateComment(id, text, visitor string, isAdmin bool) (models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, invalid("text is required")
	}

	var updated models.Comment
	err := s.comments.Update(func(comments *[]models.Comment) error {
		idx := slices.IndexFunc(*comments, func(c models.Comment) bool { return c.ID == id })
		if idx < 0 {
			return fmt.Errorf("comment %s: %w", id, ErrNotFound)
		}
		c := &(*comments)[idx]
		if c.IP != visitor && !isAdmin {
			return fmt.Errorf("comment %s: %w", id, ErrForbidden)
		}
		c.Text = text
		c.UpdatedAt = s.now()
		updated = *c
		return nil
	})
	if err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return updated, nil
}

func (s *Store) DeleteComment(id string) error {
	err := s.comments.Update(func(comments *[]models.Comment) error {
		before := len(*comments)
		*comments = slices.DeleteFunc(*comments, func(c models.Comment) bool { return c.ID == id })
		if len(*comments) == before {
			return fmt.Errorf("comment %s: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
