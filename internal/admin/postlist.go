package admin

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jeremyjsx/journal/internal/posts"
	"github.com/jeremyjsx/journal/internal/poststore"
)

const recentWindow = 7 * 24 * time.Hour

type Stats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
	Recent    int `json:"recent"`
}

// Confirmer is asked before a delete is sent. Returning false cancels it.
type Confirmer func(p posts.Post) bool

// PostList mirrors the post table for the admin list and dashboard. Local
// rows change only after the store confirms a write. Callers get copies.
type PostList struct {
	store   poststore.Store
	session SessionContext
	now     func() time.Time

	mu      sync.Mutex
	all     []posts.Post
	pending map[string]struct{}
	loadGen uint64
	// writes counts confirmed toggles and deletes; a load that started
	// before one of them holds stale rows.
	writes  uint64
	loading bool
	closed  bool
}

// NewPostList builds an empty list. A nil session skips the admin check,
// for callers that authorize upstream.
func NewPostList(store poststore.Store, session SessionContext) *PostList {
	return &PostList{
		store:   store,
		session: session,
		now:     time.Now,
		pending: make(map[string]struct{}),
	}
}

func (l *PostList) authorize() error {
	if l.session != nil && !l.session.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// Load replaces the local rows with a fresh listing. On failure the previous
// rows stay and the error wraps posts.ErrReadDegraded. A load overtaken by a
// newer one, by a confirmed toggle or delete, or by Close, is dropped.
func (l *PostList) Load(ctx context.Context) error {
	if err := l.authorize(); err != nil {
		return err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.loadGen++
	gen := l.loadGen
	writes := l.writes
	l.loading = true
	l.mu.Unlock()

	list, err := l.store.ListPosts(ctx, false)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if gen != l.loadGen {
		return nil
	}
	l.loading = false
	if err != nil {
		return err
	}
	if writes != l.writes {
		return nil
	}

	rows := make([]posts.Post, len(list))
	copy(rows, list)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].UpdatedAt.After(rows[j].UpdatedAt)
	})
	l.all = rows
	return nil
}

func (l *PostList) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Close detaches the list. Operations still in flight finish against the
// store but their results are not applied.
func (l *PostList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.loading = false
}

func (l *PostList) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-recentWindow)
	s := Stats{Total: len(l.all)}
	for _, p := range l.all {
		if p.Published {
			s.Published++
		} else {
			s.Drafts++
		}
		if p.CreatedAt.After(cutoff) {
			s.Recent++
		}
	}
	return s
}

// View partitions the rows by the published flag.
func (l *PostList) View(tab Tab) []posts.Post {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]posts.Post, 0, len(l.all))
	for _, p := range l.all {
		switch {
		case tab == TabPublished && !p.Published:
			continue
		case tab == TabDrafts && p.Published:
			continue
		}
		out = append(out, p)
	}
	return out
}

// ByCategory filters on an exact category name. An empty name or "all"
// returns every row.
func (l *PostList) ByCategory(category string) []posts.Post {
	if category == "" || category == string(TabAll) {
		return l.View(TabAll)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]posts.Post, 0)
	for _, p := range l.all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (l *PostList) Categories() []posts.CategoryCount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return posts.CountCategories(l.all)
}

// TogglePublish flips the published flag of a loaded row. The row is replaced
// with the stored post only once the store accepts the change, and keeps its
// position in the list.
func (l *PostList) TogglePublish(ctx context.Context, id string) (posts.Post, error) {
	if err := l.authorize(); err != nil {
		return posts.Post{}, err
	}

	current, err := l.begin(id)
	if err != nil {
		return posts.Post{}, err
	}

	next := !current.Published
	updated, err := l.store.UpdatePost(ctx, id, posts.Patch{Published: &next})

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
	if err != nil {
		return posts.Post{}, err
	}
	if l.closed {
		return updated, ErrClosed
	}
	l.writes++
	if i := l.indexOf(id); i >= 0 {
		l.all[i] = updated
	}
	return updated, nil
}

// Delete asks confirm, then deletes the post and drops the row from every
// view. A declined or missing confirmation sends nothing.
func (l *PostList) Delete(ctx context.Context, id string, confirm Confirmer) error {
	if err := l.authorize(); err != nil {
		return err
	}

	current, err := l.begin(id)
	if err != nil {
		return err
	}

	if confirm == nil || !confirm(current) {
		l.finish(id)
		return ErrDeleteCancelled
	}

	err = l.store.DeletePost(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
	if err != nil {
		return err
	}
	if l.closed {
		return ErrClosed
	}
	l.writes++
	if i := l.indexOf(id); i >= 0 {
		l.all = append(l.all[:i], l.all[i+1:]...)
	}
	return nil
}

// begin marks a row busy and returns a copy of it.
func (l *PostList) begin(id string) (posts.Post, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return posts.Post{}, ErrClosed
	}
	i := l.indexOf(id)
	if i < 0 {
		return posts.Post{}, posts.ErrNotFound
	}
	if _, busy := l.pending[id]; busy {
		return posts.Post{}, ErrBusy
	}
	l.pending[id] = struct{}{}
	return l.all[i], nil
}

func (l *PostList) finish(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
}

// Pending reports whether id has a toggle or delete in flight.
func (l *PostList) Pending(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[id]
	return ok
}

func (l *PostList) indexOf(id string) int {
	for i, p := range l.all {
		if p.ID.String() == id {
			return i
		}
	}
	return -1
}
