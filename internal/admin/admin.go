// Package admin holds the view models behind the admin area: the post list
// with its dashboard counts, and the post editor.
package admin

import (
	"errors"
	"fmt"
)

var (
	ErrSaveInFlight    = errors.New("a save is already in progress")
	ErrBusy            = errors.New("an operation on this post is already in progress")
	ErrDeleteCancelled = errors.New("delete cancelled")
	ErrClosed          = errors.New("view closed")
	ErrNotAdmin        = errors.New("admin access required")
)

// SessionContext is the slice of the signed-in session the controllers need.
// auth.Session and auth.User both satisfy it.
type SessionContext interface {
	IsAdmin() bool
}

type Tab string

const (
	TabAll       Tab = "all"
	TabPublished Tab = "published"
	TabDrafts    Tab = "drafts"
)

func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case "":
		return TabAll, nil
	case TabAll, TabPublished, TabDrafts:
		return Tab(s), nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}
