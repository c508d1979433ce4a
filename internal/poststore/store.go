// Package poststore is the narrow gateway the admin controllers use to reach
// the post table, either in-process or over the REST API.
package poststore

import (
	"context"
	"errors"

	"github.com/jeremyjsx/journal/internal/posts"
)

var ErrUnauthorized = errors.New("not authorized")

// Store translates the five post operations into calls on the authoritative
// store. Implementations hold no post state.
//
// ListPosts never degrades to an empty list: a failed load returns an error
// wrapping posts.ErrReadDegraded. Writes fail with posts.ErrValidation,
// posts.ErrNotFound or posts.ErrPersistence. Deleting an unknown id is
// posts.ErrNotFound.
type Store interface {
	ListPosts(ctx context.Context, publishedOnly bool) ([]posts.Post, error)
	GetPost(ctx context.Context, id string) (posts.Post, error)
	CreatePost(ctx context.Context, f posts.Fields) (posts.Post, error)
	UpdatePost(ctx context.Context, id string, patch posts.Patch) (posts.Post, error)
	DeletePost(ctx context.Context, id string) error
}
