package admin

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyjsx/journal/internal/posts"
	"github.com/jeremyjsx/journal/internal/poststore"
)

var _ poststore.Store = (*fakeStore)(nil)

// fakeStore is an in-memory post table with a clock that only moves forward.
// Setting gate makes writes wait until it is closed; started receives one
// value per write that reached the store.
type fakeStore struct {
	mu    sync.Mutex
	rows  map[string]posts.Post
	clock time.Time

	lists, creates, updates, deletes int

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	gate    chan struct{}
	started chan struct{}

	// listGate and listStarted do the same for ListPosts.
	listGate    chan struct{}
	listStarted chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:  make(map[string]posts.Post),
		clock: time.Now().Add(-time.Hour),
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *fakeStore) wait(ctx context.Context) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate == nil {
		return nil
	}
	select {
	case <-s.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeStore) seed(p posts.Post) posts.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := s.tick()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.rows[p.ID.String()] = p
	return p
}

func (s *fakeStore) counts() (creates, updates, deletes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates, s.updates, s.deletes
}

func (s *fakeStore) ListPosts(ctx context.Context, publishedOnly bool) ([]posts.Post, error) {
	s.mu.Lock()
	out := s.snapshot(publishedOnly)
	listErr := s.listErr
	s.lists++
	s.mu.Unlock()

	if s.listStarted != nil {
		s.listStarted <- struct{}{}
	}
	if s.listGate != nil {
		select {
		case <-s.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if listErr != nil {
		return nil, listErr
	}
	return out, nil
}

// snapshot copies the rows as they are when the listing starts. Callers hold
// s.mu.
func (s *fakeStore) snapshot(publishedOnly bool) []posts.Post {
	out := make([]posts.Post, 0, len(s.rows))
	for _, p := range s.rows {
		if publishedOnly && !p.Published {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (s *fakeStore) GetPost(_ context.Context, id string) (posts.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return posts.Post{}, posts.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) CreatePost(ctx context.Context, f posts.Fields) (posts.Post, error) {
	if err := s.wait(ctx); err != nil {
		return posts.Post{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return posts.Post{}, s.createErr
	}
	now := s.tick()
	p := posts.Post{
		ID:         uuid.New(),
		Title:      f.Title,
		Excerpt:    f.Excerpt,
		Content:    f.Content,
		CoverImage: f.CoverImage,
		Category:   f.Category,
		Published:  f.Published,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.rows[p.ID.String()] = p
	return p, nil
}

func (s *fakeStore) UpdatePost(ctx context.Context, id string, patch posts.Patch) (posts.Post, error) {
	if err := s.wait(ctx); err != nil {
		return posts.Post{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.updateErr != nil {
		return posts.Post{}, s.updateErr
	}
	p, ok := s.rows[id]
	if !ok {
		return posts.Post{}, posts.ErrNotFound
	}
	patch.Apply(&p)
	p.UpdatedAt = s.tick()
	s.rows[id] = p
	return p, nil
}

func (s *fakeStore) DeletePost(ctx context.Context, id string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.rows[id]; !ok {
		return posts.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

type staticSession bool

func (s staticSession) IsAdmin() bool { return bool(s) }
