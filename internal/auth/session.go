package auth

import (
	"context"
	"errors"
	"sync"
)

// Session is the signed-in state of one front-end. It is created empty at
// start, filled by SignIn or Restore, and cleared by SignOut. Listeners run
// after every change, outside the session lock.
type Session struct {
	provider Provider

	mu        sync.Mutex
	token     Token
	signedIn  bool
	listeners []func(u User, signedIn bool)
}

func NewSession(provider Provider) *Session {
	return &Session{provider: provider}
}

func (s *Session) OnChange(fn func(u User, signedIn bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) SignIn(ctx context.Context, email, password string) (User, error) {
	t, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return User{}, err
	}
	s.set(t, true)
	return t.User, nil
}

// Restore adopts a token issued earlier, after checking it with the provider.
func (s *Session) Restore(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrNotSignedIn
	}
	u, err := s.provider.Authenticate(ctx, token)
	if err != nil {
		return User{}, err
	}
	s.set(Token{Value: token, User: u}, true)
	return u, nil
}

// Refresh re-reads the current user. A token the provider no longer accepts
// signs the session out.
func (s *Session) Refresh(ctx context.Context) (User, error) {
	s.mu.Lock()
	t, ok := s.token, s.signedIn
	s.mu.Unlock()
	if !ok {
		return User{}, ErrNotSignedIn
	}

	u, err := s.provider.Authenticate(ctx, t.Value)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			s.set(Token{}, false)
		}
		return User{}, err
	}
	t.User = u
	s.set(t, true)
	return u, nil
}

// SignOut clears the session even when the provider call fails.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	t, ok := s.token, s.signedIn
	s.mu.Unlock()
	if !ok {
		return nil
	}
	err := s.provider.SignOut(ctx, t.Value)
	s.set(Token{}, false)
	return err
}

func (s *Session) Current() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token.User, s.signedIn
}

func (s *Session) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signedIn && s.token.User.Admin
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token.Value
}

func (s *Session) set(t Token, signedIn bool) {
	s.mu.Lock()
	s.token = t
	s.signedIn = signedIn
	listeners := make([]func(User, bool), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(t.User, signedIn)
	}
}
