package posts

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context, params ListParams) ([]*Post, error)
	Get(ctx context.Context, id uuid.UUID) (*Post, error)
	Create(ctx context.Context, post *Post) (*Post, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]CategoryCount, error)
}
