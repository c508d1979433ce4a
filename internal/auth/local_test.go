package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeremyjsx/journal/internal/db"
)

func newTestProvider(t *testing.T, admins ...string) (*LocalProvider, *db.DB) {
	t.Helper()
	ctx := context.Background()
	d, err := db.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	p, err := NewLocalProvider(d, LocalConfig{Secret: []byte("test-secret"), AdminEmails: admins})
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	return p, d
}

func TestNewLocalProvider_RequiresSecret(t *testing.T) {
	if _, err := NewLocalProvider(nil, LocalConfig{}); err == nil {
		t.Error("expected error without secret")
	}
}

func TestLocalProvider_SignUpSignIn(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	u, err := p.SignUp(ctx, "  Author@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if u.Email != "author@example.com" || u.Admin {
		t.Errorf("user = %+v", u)
	}

	tok, err := p.SignIn(ctx, "AUTHOR@example.com", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if tok.Value == "" || tok.User.ID != u.ID {
		t.Errorf("token = %+v", tok)
	}
	if !tok.ExpiresAt.After(time.Now()) {
		t.Errorf("token already expired: %v", tok.ExpiresAt)
	}

	got, err := p.Authenticate(ctx, tok.Value)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got != u {
		t.Errorf("Authenticate = %+v, want %+v", got, u)
	}
}

func TestLocalProvider_SignUpErrors(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"bad email", "not-an-email", "long enough", ErrInvalidInput},
		{"display name form", "Bob <bob@example.com>", "long enough", ErrInvalidInput},
		{"short password", "bob@example.com", "short", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.SignUp(ctx, tt.email, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("got err %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := p.SignUp(ctx, "dup@example.com", "long enough"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := p.SignUp(ctx, "DUP@example.com", "another one"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate: got err %v", err)
	}
}

func TestLocalProvider_SignInErrors(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)
	if _, err := p.SignUp(ctx, "a@example.com", "password1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := p.SignIn(ctx, "a@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got err %v", err)
	}
	if _, err := p.SignIn(ctx, "nobody@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got err %v", err)
	}
}

func TestLocalProvider_AdminAllowlistAndFlag(t *testing.T) {
	ctx := context.Background()
	p, d := newTestProvider(t, "Boss@Example.com")

	boss, err := p.SignUp(ctx, "boss@example.com", "password1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if !boss.IsAdmin() {
		t.Error("allowlisted email not admin")
	}

	if _, err := p.SignUp(ctx, "editor@example.com", "password1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	tok, err := p.SignIn(ctx, "editor@example.com", "password1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if tok.User.IsAdmin() {
		t.Error("regular user is admin")
	}

	if _, err := d.ExecContext(ctx, "UPDATE users SET is_admin = 1 WHERE email = ?", "editor@example.com"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	u, err := p.Authenticate(ctx, tok.Value)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !u.IsAdmin() {
		t.Error("role flag not picked up on Authenticate")
	}
}

func TestLocalProvider_SignOutRevokes(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)
	if _, err := p.SignUp(ctx, "a@example.com", "password1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	first, err := p.SignIn(ctx, "a@example.com", "password1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	second, err := p.SignIn(ctx, "a@example.com", "password1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := p.SignOut(ctx, first.Value); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := p.Authenticate(ctx, first.Value); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("revoked token: got err %v", err)
	}
	if _, err := p.Authenticate(ctx, second.Value); err != nil {
		t.Errorf("other token revoked too: %v", err)
	}
}

func TestLocalProvider_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	p, d := newTestProvider(t)
	if _, err := p.SignUp(ctx, "a@example.com", "password1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	tok, err := p.SignIn(ctx, "a@example.com", "password1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	t.Run("garbage", func(t *testing.T) {
		if _, err := p.Authenticate(ctx, "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewLocalProvider(d, LocalConfig{Secret: []byte("other")})
		if err != nil {
			t.Fatalf("NewLocalProvider: %v", err)
		}
		if _, err := other.Authenticate(ctx, tok.Value); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		late, err := NewLocalProvider(d, LocalConfig{Secret: []byte("test-secret")})
		if err != nil {
			t.Fatalf("NewLocalProvider: %v", err)
		}
		late.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
		if _, err := late.Authenticate(ctx, tok.Value); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("deleted user", func(t *testing.T) {
		if _, err := d.ExecContext(ctx, "DELETE FROM users"); err != nil {
			t.Fatalf("delete users: %v", err)
		}
		if _, err := p.Authenticate(ctx, tok.Value); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("got err %v", err)
		}
	})
}
