package admin

import (
	"context"
	"strings"
	"sync"

	"github.com/jeremyjsx/journal/internal/posts"
	"github.com/jeremyjsx/journal/internal/poststore"
)

// Draft is the editable state of one post.
type Draft struct {
	Title      string
	Excerpt    string
	Content    string
	CoverImage string
	Category   string
	Published  bool
}

func draftOf(p posts.Post) Draft {
	return Draft{
		Title:      p.Title,
		Excerpt:    p.Excerpt,
		Content:    p.Content,
		CoverImage: p.CoverImage,
		Category:   p.Category,
		Published:  p.Published,
	}
}

// Editor is one edit session. Without an id it creates on save; once a save
// succeeds it keeps the stored id and later saves update that post.
type Editor struct {
	store   poststore.Store
	session SessionContext

	mu     sync.Mutex
	id     string
	draft  Draft
	saving bool
	done   bool
}

// NewEditor starts a new-post session. As with NewPostList, a nil session
// skips the admin check.
func NewEditor(store poststore.Store, session SessionContext) *Editor {
	return &Editor{store: store, session: session}
}

// OpenEditor loads id into a new session. If the post cannot be read no
// session is returned.
func OpenEditor(ctx context.Context, store poststore.Store, session SessionContext, id string) (*Editor, error) {
	if session != nil && !session.IsAdmin() {
		return nil, ErrNotAdmin
	}
	p, err := store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Editor{
		store:   store,
		session: session,
		id:      p.ID.String(),
		draft:   draftOf(p),
	}, nil
}

func (e *Editor) set(f func(d *Draft)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f(&e.draft)
}

func (e *Editor) SetTitle(v string)      { e.set(func(d *Draft) { d.Title = v }) }
func (e *Editor) SetExcerpt(v string)    { e.set(func(d *Draft) { d.Excerpt = v }) }
func (e *Editor) SetContent(v string)    { e.set(func(d *Draft) { d.Content = v }) }
func (e *Editor) SetCoverImage(v string) { e.set(func(d *Draft) { d.CoverImage = v }) }
func (e *Editor) SetCategory(v string)   { e.set(func(d *Draft) { d.Category = v }) }

// Save persists the draft with the given published flag. A blank title
// fails before the store is called. Only one save runs at a time; a save
// issued meanwhile returns ErrSaveInFlight. On failure the draft is kept as
// it was. Without admin rights it returns ErrNotAdmin and sends nothing.
func (e *Editor) Save(ctx context.Context, published bool) (posts.Post, error) {
	if e.session != nil && !e.session.IsAdmin() {
		return posts.Post{}, ErrNotAdmin
	}

	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return posts.Post{}, ErrSaveInFlight
	}
	d := e.draft
	if strings.TrimSpace(d.Title) == "" {
		e.mu.Unlock()
		return posts.Post{}, posts.NewValidationError(map[string]string{"title": "required"})
	}
	e.saving = true
	id := e.id
	e.mu.Unlock()

	var (
		saved posts.Post
		err   error
	)
	if id == "" {
		saved, err = e.store.CreatePost(ctx, posts.Fields{
			Title:      d.Title,
			Excerpt:    d.Excerpt,
			Content:    d.Content,
			CoverImage: d.CoverImage,
			Category:   d.Category,
			Published:  published,
		})
	} else {
		saved, err = e.store.UpdatePost(ctx, id, posts.Patch{
			Title:      &d.Title,
			Excerpt:    &d.Excerpt,
			Content:    &d.Content,
			CoverImage: &d.CoverImage,
			Category:   &d.Category,
			Published:  &published,
		})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		return posts.Post{}, err
	}
	e.id = saved.ID.String()
	e.draft = draftOf(saved)
	e.done = true
	return saved, nil
}

func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// Done reports whether a save has succeeded in this session.
func (e *Editor) Done() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// ID is empty until the session has a stored post.
func (e *Editor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}
