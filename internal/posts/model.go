package posts

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	Draft     Status = "draft"
	Published Status = "published"
)

type Post struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Content    string    `json:"content"`
	CoverImage string    `json:"cover_image,omitempty"`
	Category   string    `json:"category,omitempty"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p Post) Status() Status {
	if p.Published {
		return Published
	}
	return Draft
}

// Fields are the author-editable fields of a new post.
type Fields struct {
	Title      string `json:"title"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content"`
	CoverImage string `json:"cover_image"`
	Category   string `json:"category"`
	Published  bool   `json:"published"`
}

func (f Fields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return NewValidationError(map[string]string{"title": "required"})
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title      *string `json:"title,omitempty"`
	Excerpt    *string `json:"excerpt,omitempty"`
	Content    *string `json:"content,omitempty"`
	CoverImage *string `json:"cover_image,omitempty"`
	Category   *string `json:"category,omitempty"`
	Published  *bool   `json:"published,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Excerpt == nil && p.Content == nil &&
		p.CoverImage == nil && p.Category == nil && p.Published == nil
}

func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return NewValidationError(map[string]string{"title": "required"})
	}
	return nil
}

// Apply merges the patch into post.
func (p Patch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Excerpt != nil {
		post.Excerpt = *p.Excerpt
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.CoverImage != nil {
		post.CoverImage = *p.CoverImage
	}
	if p.Category != nil {
		post.Category = *p.Category
	}
	if p.Published != nil {
		post.Published = *p.Published
	}
}

type ListParams struct {
	PublishedOnly bool
	Category      string
	Query         string
}
