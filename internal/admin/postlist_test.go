package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeremyjsx/journal/internal/posts"
)

func loadedList(t *testing.T, store *fakeStore) *PostList {
	t.Helper()
	l := NewPostList(store, staticSession(true))
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return l
}

func ids(list []posts.Post) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, p := range list {
		out[p.ID.String()] = true
	}
	return out
}

func checkCounts(t *testing.T, l *PostList) {
	t.Helper()
	s := l.Stats()
	all := l.View(TabAll)
	pub := l.View(TabPublished)
	drafts := l.View(TabDrafts)

	if s.Total != s.Published+s.Drafts {
		t.Errorf("total %d != published %d + drafts %d", s.Total, s.Published, s.Drafts)
	}
	if s.Published+s.Drafts != len(all) {
		t.Errorf("published+drafts = %d, len(all) = %d", s.Published+s.Drafts, len(all))
	}
	if len(pub) != s.Published || len(drafts) != s.Drafts {
		t.Errorf("views %d/%d disagree with stats %+v", len(pub), len(drafts), s)
	}

	inPub, inDrafts := ids(pub), ids(drafts)
	for _, p := range all {
		id := p.ID.String()
		if inPub[id] == inDrafts[id] {
			t.Errorf("post %s in published=%v drafts=%v", id, inPub[id], inDrafts[id])
		}
		if inPub[id] != p.Published {
			t.Errorf("post %s membership does not follow published flag", id)
		}
	}
	if len(inPub)+len(inDrafts) != len(all) {
		t.Errorf("union of views has %d posts, all has %d", len(inPub)+len(inDrafts), len(all))
	}
}

func TestPostList_CountsAndPartitions(t *testing.T) {
	store := newFakeStore()
	store.seed(posts.Post{Title: "a", Published: true})
	store.seed(posts.Post{Title: "b"})
	store.seed(posts.Post{Title: "c", Published: true})
	store.seed(posts.Post{Title: "d"})
	store.seed(posts.Post{Title: "e"})

	l := loadedList(t, store)
	checkCounts(t, l)

	s := l.Stats()
	if s.Total != 5 || s.Published != 2 || s.Drafts != 3 {
		t.Errorf("stats = %+v", s)
	}

	all := l.View(TabAll)
	for i := 1; i < len(all); i++ {
		if all[i].UpdatedAt.After(all[i-1].UpdatedAt) {
			t.Errorf("rows not ordered by updated_at desc at %d", i)
		}
	}

	for _, p := range l.View(TabDrafts) {
		if _, err := l.TogglePublish(context.Background(), p.ID.String()); err != nil {
			t.Fatalf("TogglePublish: %v", err)
		}
		checkCounts(t, l)
	}
	if s := l.Stats(); s.Published != 5 || s.Drafts != 0 {
		t.Errorf("after publishing all: %+v", s)
	}
}

func TestPostList_ViewsAreCopies(t *testing.T) {
	store := newFakeStore()
	store.seed(posts.Post{Title: "original"})
	l := loadedList(t, store)

	v := l.View(TabAll)
	v[0].Title = "mutated"
	if got := l.View(TabAll)[0].Title; got != "original" {
		t.Errorf("view mutation leaked into list: %q", got)
	}
}

func TestPostList_ToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	p := store.seed(posts.Post{Title: "live", Published: true})
	l := loadedList(t, store)

	first, err := l.TogglePublish(ctx, p.ID.String())
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if first.Published {
		t.Error("first toggle did not unpublish")
	}
	if !first.UpdatedAt.After(p.UpdatedAt) {
		t.Errorf("updated_at %v not after %v", first.UpdatedAt, p.UpdatedAt)
	}

	second, err := l.TogglePublish(ctx, p.ID.String())
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if !second.Published {
		t.Error("second toggle did not republish")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updated_at %v not after %v", second.UpdatedAt, first.UpdatedAt)
	}

	row := l.View(TabAll)[0]
	if !row.Published || !row.UpdatedAt.Equal(second.UpdatedAt) {
		t.Errorf("local row = %+v", row)
	}
}

func TestPostList_ToggleFailureLeavesState(t *testing.T) {
	store := newFakeStore()
	p := store.seed(posts.Post{Title: "draft"})
	l := loadedList(t, store)

	store.updateErr = posts.ErrPersistence
	_, err := l.TogglePublish(context.Background(), p.ID.String())
	if !errors.Is(err, posts.ErrPersistence) {
		t.Fatalf("got err %v", err)
	}
	if s := l.Stats(); s.Drafts != 1 || s.Published != 0 {
		t.Errorf("stats changed after failed toggle: %+v", s)
	}
	if l.Pending(p.ID.String()) {
		t.Error("row still pending after failure")
	}
}

func TestPostList_ToggleUnknownRow(t *testing.T) {
	l := loadedList(t, newFakeStore())
	_, err := l.TogglePublish(context.Background(), "missing-123")
	if !errors.Is(err, posts.ErrNotFound) {
		t.Errorf("got err %v", err)
	}
}

func TestPostList_DeleteDraft(t *testing.T) {
	store := newFakeStore()
	keep := store.seed(posts.Post{Title: "keep", Published: true})
	gone := store.seed(posts.Post{Title: "gone"})
	l := loadedList(t, store)

	if ids(l.View(TabPublished))[gone.ID.String()] {
		t.Fatal("draft listed as published")
	}

	var asked posts.Post
	err := l.Delete(context.Background(), gone.ID.String(), func(p posts.Post) bool {
		asked = p
		return true
	})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if asked.ID != gone.ID {
		t.Errorf("confirm asked about %v", asked.ID)
	}
	for _, tab := range []Tab{TabAll, TabPublished, TabDrafts} {
		if ids(l.View(tab))[gone.ID.String()] {
			t.Errorf("deleted post still in %s", tab)
		}
	}
	if !ids(l.View(TabAll))[keep.ID.String()] {
		t.Error("unrelated post removed")
	}
	checkCounts(t, l)
}

func TestPostList_DeleteCancelled(t *testing.T) {
	store := newFakeStore()
	p := store.seed(posts.Post{Title: "p"})
	l := loadedList(t, store)

	err := l.Delete(context.Background(), p.ID.String(), func(posts.Post) bool { return false })
	if !errors.Is(err, ErrDeleteCancelled) {
		t.Fatalf("got err %v", err)
	}
	if err := l.Delete(context.Background(), p.ID.String(), nil); !errors.Is(err, ErrDeleteCancelled) {
		t.Fatalf("nil confirm: got err %v", err)
	}
	if _, _, deletes := store.counts(); deletes != 0 {
		t.Errorf("store saw %d deletes", deletes)
	}
	if l.Stats().Total != 1 {
		t.Error("row removed without confirmation")
	}
}

func TestPostList_DeleteFailureLeavesState(t *testing.T) {
	store := newFakeStore()
	p := store.seed(posts.Post{Title: "p"})
	l := loadedList(t, store)

	store.deleteErr = posts.ErrPersistence
	err := l.Delete(context.Background(), p.ID.String(), func(posts.Post) bool { return true })
	if !errors.Is(err, posts.ErrPersistence) {
		t.Fatalf("got err %v", err)
	}
	if l.Stats().Total != 1 || l.Stats().Drafts != 1 {
		t.Errorf("stats = %+v", l.Stats())
	}
}

func TestPostList_BusyRow(t *testing.T) {
	store := newFakeStore()
	p := store.seed(posts.Post{Title: "p"})
	l := loadedList(t, store)

	store.gate = make(chan struct{})
	store.started = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := l.TogglePublish(context.Background(), p.ID.String())
		done <- err
	}()
	<-store.started

	if !l.Pending(p.ID.String()) {
		t.Error("row not marked pending")
	}
	if _, err := l.TogglePublish(context.Background(), p.ID.String()); !errors.Is(err, ErrBusy) {
		t.Errorf("second toggle: got err %v", err)
	}
	if err := l.Delete(context.Background(), p.ID.String(), func(posts.Post) bool { return true }); !errors.Is(err, ErrBusy) {
		t.Errorf("delete during toggle: got err %v", err)
	}

	close(store.gate)
	if err := <-done; err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if _, updates, deletes := store.counts(); updates != 1 || deletes != 0 {
		t.Errorf("store saw %d updates, %d deletes", updates, deletes)
	}
}

func TestPostList_CloseDiscardsLateResults(t *testing.T) {
	store := newFakeStore()
	p := store.seed(posts.Post{Title: "p"})
	l := loadedList(t, store)

	store.gate = make(chan struct{})
	store.started = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := l.TogglePublish(context.Background(), p.ID.String())
		done <- err
	}()
	<-store.started
	l.Close()
	close(store.gate)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Errorf("got err %v", err)
	}
	if l.View(TabAll)[0].Published {
		t.Error("late result applied after Close")
	}
	if err := l.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close: %v", err)
	}
}

func TestPostList_LoadDegradedKeepsRows(t *testing.T) {
	store := newFakeStore()
	store.seed(posts.Post{Title: "p"})
	l := loadedList(t, store)

	store.listErr = posts.ErrReadDegraded
	err := l.Load(context.Background())
	if !errors.Is(err, posts.ErrReadDegraded) {
		t.Fatalf("got err %v", err)
	}
	if l.Stats().Total != 1 {
		t.Errorf("rows dropped on failed load: %+v", l.Stats())
	}
	if l.Loading() {
		t.Error("still loading after failure")
	}
}

func TestPostList_NotAdmin(t *testing.T) {
	store := newFakeStore()
	l := NewPostList(store, staticSession(false))
	if err := l.Load(context.Background()); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("Load: got err %v", err)
	}
	if store.lists != 0 {
		t.Errorf("store listed %d times", store.lists)
	}
}

func TestPostList_CategoriesAndRecent(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	store.seed(posts.Post{Title: "a", Category: "Design", CreatedAt: now.Add(-30 * 24 * time.Hour)})
	store.seed(posts.Post{Title: "b", Category: "Design", Published: true})
	store.seed(posts.Post{Title: "c", Category: "Travel"})
	store.seed(posts.Post{Title: "d"})
	l := loadedList(t, store)
	l.now = func() time.Time { return now }

	if s := l.Stats(); s.Recent != 3 {
		t.Errorf("recent = %d, want 3", s.Recent)
	}

	cats := l.Categories()
	if len(cats) != 2 || cats[0] != (posts.CategoryCount{Name: "Design", Count: 2}) || cats[1].Name != "Travel" {
		t.Errorf("categories = %+v", cats)
	}
	if got := l.ByCategory("Design"); len(got) != 2 {
		t.Errorf("ByCategory(Design) = %d posts", len(got))
	}
	if got := l.ByCategory("all"); len(got) != 4 {
		t.Errorf("ByCategory(all) = %d posts", len(got))
	}
	if got := l.ByCategory("Unknown"); len(got) != 0 {
		t.Errorf("ByCategory(Unknown) = %d posts", len(got))
	}
}

func TestParseTab(t *testing.T) {
	for in, want := range map[string]Tab{"": TabAll, "all": TabAll, "published": TabPublished, "drafts": TabDrafts} {
		got, err := ParseTab(in)
		if err != nil || got != want {
			t.Errorf("ParseTab(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseTab("archived"); err == nil {
		t.Error("expected error for unknown tab")
	}
}

func TestPostList_StaleLoadDoesNotUndoWrites(t *testing.T) {
	store := newFakeStore()
	toggled := store.seed(posts.Post{Title: "toggled"})
	removed := store.seed(posts.Post{Title: "removed"})
	l := loadedList(t, store)

	store.listGate = make(chan struct{})
	store.listStarted = make(chan struct{}, 1)

	loaded := make(chan error, 1)
	go func() { loaded <- l.Load(context.Background()) }()
	<-store.listStarted
	if !l.Loading() {
		t.Error("Loading() false while a load is in flight")
	}

	if _, err := l.TogglePublish(context.Background(), toggled.ID.String()); err != nil {
		t.Fatalf("TogglePublish: %v", err)
	}
	if err := l.Delete(context.Background(), removed.ID.String(), func(posts.Post) bool { return true }); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	close(store.listGate)
	if err := <-loaded; err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Loading() {
		t.Error("Loading() still true after the load settled")
	}

	rows := l.View(TabAll)
	if len(rows) != 1 || rows[0].ID != toggled.ID || !rows[0].Published {
		t.Errorf("rows after stale load = %+v", rows)
	}
	checkCounts(t, l)

	store.listGate = nil
	store.listStarted = nil
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("fresh Load: %v", err)
	}
	if rows := l.View(TabPublished); len(rows) != 1 || rows[0].ID != toggled.ID {
		t.Errorf("published rows after fresh load = %+v", rows)
	}
}
