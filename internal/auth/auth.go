// Package auth signs authors in and out and carries the signed-in user
// through request contexts and the admin session.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotSignedIn        = errors.New("not signed in")
)

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Admin bool      `json:"is_admin"`
}

func (u User) IsAdmin() bool {
	return u.Admin
}

type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Provider is the authentication backend: local accounts in the journal
// database, or a remote journal API.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (User, error)
	SignIn(ctx context.Context, email, password string) (Token, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (User, error)
}

type contextKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok
}
