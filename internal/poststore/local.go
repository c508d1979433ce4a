package poststore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jeremyjsx/journal/internal/posts"
)

var _ Store = (*Local)(nil)

// Local serves the store in-process over a posts.Service.
type Local struct {
	svc *posts.Service
}

func NewLocal(svc *posts.Service) *Local {
	return &Local{svc: svc}
}

func (l *Local) ListPosts(ctx context.Context, publishedOnly bool) ([]posts.Post, error) {
	list, err := l.svc.ListPosts(ctx, posts.ListParams{PublishedOnly: publishedOnly})
	if err != nil {
		return nil, err
	}
	return values(list), nil
}

func (l *Local) GetPost(ctx context.Context, id string) (posts.Post, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return posts.Post{}, posts.ErrNotFound
	}
	p, err := l.svc.GetPost(ctx, uid)
	if err != nil {
		return posts.Post{}, err
	}
	return *p, nil
}

func (l *Local) CreatePost(ctx context.Context, f posts.Fields) (posts.Post, error) {
	p, err := l.svc.CreatePost(ctx, f)
	if err != nil {
		return posts.Post{}, writeFailure("create post", err)
	}
	return *p, nil
}

func (l *Local) UpdatePost(ctx context.Context, id string, patch posts.Patch) (posts.Post, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return posts.Post{}, posts.ErrNotFound
	}
	p, err := l.svc.UpdatePost(ctx, uid, patch)
	if err != nil {
		return posts.Post{}, writeFailure("update post", err)
	}
	return *p, nil
}

func (l *Local) DeletePost(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return posts.ErrNotFound
	}
	if err := l.svc.DeletePost(ctx, uid); err != nil {
		return writeFailure("delete post", err)
	}
	return nil
}

// writeFailure folds anything that is not already classified into
// ErrPersistence.
func writeFailure(op string, err error) error {
	if errors.Is(err, posts.ErrValidation) ||
		errors.Is(err, posts.ErrNotFound) ||
		errors.Is(err, posts.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, posts.ErrPersistence, err)
}

func values(list []*posts.Post) []posts.Post {
	out := make([]posts.Post, 0, len(list))
	for _, p := range list {
		out = append(out, *p)
	}
	return out
}
