package models

import "time"

// DefaultCategory is used when a post is created without one.
const DefaultCategory = "Uncategorized"

type Post struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	MainImage   string   `json:"mainImage"`
	ExtraImages []string `json:"extraImages"`
	// Likes holds the visitor identities that currently like the post.
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeCount is the number of visitors currently liking the post.
func (p Post) LikeCount() int {
	return len(p.Likes)
}

// CategoryOrDefault returns the post's category, falling back to
// DefaultCategory for legacy records stored without one.
func (p Post) CategoryOrDefault() string {
	if p.Category == "" {
		return DefaultCategory
	}
	return p.Category
}

type Comment struct {
	ID     string `json:"id"`
	PostID string `json:"postId"`
	Name   string `json:"name"`
	Text   string `json:"text"`
	// IP is the visitor identity captured at creation; it decides who may edit.
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultCommentName is used when a visitor comments without a name.
const DefaultCommentName = "Anonymous"
