package posts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jeremyjsx/journal/internal/events"
	"github.com/jeremyjsx/journal/internal/storage"
)

type Deps struct {
	Repo      Repository
	Storage   storage.Storage
	Publisher events.Publisher
	Logger    *slog.Logger

	Bucket        string
	Region        string
	PublicBaseURL string
}

type Service struct {
	repo      Repository
	storage   storage.Storage
	publisher events.Publisher
	logger    *slog.Logger

	bucket        string
	region        string
	publicBaseURL string
}

// NewService wires the post service. A nil Storage keeps cover images
// inline; a nil Publisher drops publish-state events.
func NewService(deps Deps) *Service {
	s := &Service{
		repo:          deps.Repo,
		storage:       deps.Storage,
		publisher:     deps.Publisher,
		logger:        deps.Logger,
		bucket:        deps.Bucket,
		region:        deps.Region,
		publicBaseURL: deps.PublicBaseURL,
	}
	if s.publisher == nil {
		s.publisher = events.NoopPublisher{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ListPosts never answers a failed read with an empty list; the error wraps
// ErrReadDegraded.
func (s *Service) ListPosts(ctx context.Context, params ListParams) ([]*Post, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadDegraded, err)
	}
	return list, nil
}

func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.repo.Get(ctx, id)
}

// GetPublishedPost hides drafts behind ErrNotFound.
func (s *Service) GetPublishedPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.Published {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *Service) Categories(ctx context.Context) ([]CategoryCount, error) {
	cats, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadDegraded, err)
	}
	return cats, nil
}

func (s *Service) CreatePost(ctx context.Context, f Fields) (*Post, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	post := &Post{
		ID:        uuid.New(),
		Title:     f.Title,
		Excerpt:   f.Excerpt,
		Content:   f.Content,
		Category:  f.Category,
		Published: f.Published,
	}
	post.CoverImage = s.offloadCover(ctx, post.ID, f.CoverImage)

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		if post.CoverImage != f.CoverImage {
			if cerr := s.storage.DeletePrefix(ctx, coverPrefix(post.ID)); cerr != nil {
				s.logger.Warn("delete orphaned cover failed", "post_id", post.ID, "error", cerr)
			}
		}
		return nil, err
	}
	if created.Published {
		s.notify(ctx, events.NewPostPublished(created.ID, created.Title, created.Category))
	}
	return created, nil
}

func (s *Service) UpdatePost(ctx context.Context, id uuid.UUID, patch Patch) (*Post, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var uploaded string
	if patch.CoverImage != nil {
		cover := s.offloadCover(ctx, id, *patch.CoverImage)
		if cover != *patch.CoverImage {
			uploaded = cover
		}
		patch.CoverImage = &cover
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if uploaded != "" {
			s.dropReplacedCover(ctx, id, uploaded, "")
		}
		return nil, err
	}
	s.dropReplacedCover(ctx, id, current.CoverImage, updated.CoverImage)

	switch {
	case updated.Published && !current.Published:
		s.notify(ctx, events.NewPostPublished(updated.ID, updated.Title, updated.Category))
	case !updated.Published && current.Published:
		s.notify(ctx, events.NewPostUnpublished(updated.ID, updated.Title, updated.Category))
	}
	return updated, nil
}

// DeletePost removes the row, then its uploaded covers. A cover cleanup
// failure is logged and does not undo the delete.
func (s *Service) DeletePost(ctx context.Context, id uuid.UUID) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.storage != nil {
		if err := s.storage.DeletePrefix(ctx, coverPrefix(id)); err != nil {
			s.logger.Warn("delete post covers failed", "post_id", id, "error", err)
		}
	}
	if current.Published {
		s.notify(ctx, events.NewPostUnpublished(current.ID, current.Title, current.Category))
	}
	return nil
}

func (s *Service) notify(ctx context.Context, e events.PostEvent) {
	if err := s.publisher.PublishPostEvent(ctx, e); err != nil {
		s.logger.Warn("publish post event failed", "type", e.Type, "post_id", e.Payload.PostID, "error", err)
	}
}

func (s *Service) s3PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.publicBaseURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
