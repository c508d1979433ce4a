package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jeremyjsx/journal/internal/db"
	"golang.org/x/crypto/bcrypt"
)

var _ Provider = (*LocalProvider)(nil)

const (
	MinPasswordLength = 8
	DefaultTokenTTL   = 24 * time.Hour
)

type LocalConfig struct {
	Secret      []byte
	TTL         time.Duration
	AdminEmails []string
}

// LocalProvider keeps accounts in the users table and issues HS256 tokens.
// Revoked token ids are remembered in memory until they expire.
type LocalProvider struct {
	db          *db.DB
	secret      []byte
	ttl         time.Duration
	adminEmails map[string]struct{}
	now         func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

type claims struct {
	Email string `json:"email"`
	Admin bool   `json:"adm"`
	jwt.RegisteredClaims
}

func NewLocalProvider(database *db.DB, cfg LocalConfig) (*LocalProvider, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &LocalProvider{
		db:          database,
		secret:      cfg.Secret,
		ttl:         ttl,
		adminEmails: admins,
		now:         time.Now,
		revoked:     make(map[string]time.Time),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

func (p *LocalProvider) isAdmin(email string, flag bool) bool {
	if flag {
		return true
	}
	_, ok := p.adminEmails[email]
	return ok
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.New()
	_, err = p.db.ExecContext(ctx, p.db.Rebind(
		"INSERT INTO users (id, email, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?)"),
		id, email, string(hash), false, p.now().UTC().Truncate(time.Microsecond),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return User{ID: id, Email: email, Admin: p.isAdmin(email, false)}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Token, error) {
	email = normalizeEmail(email)

	var (
		u    User
		hash string
	)
	row := p.db.QueryRowContext(ctx, p.db.Rebind(
		"SELECT id, email, password_hash, is_admin FROM users WHERE email = ?"), email)
	if err := row.Scan(&u.ID, &u.Email, &hash, &u.Admin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Token{}, ErrInvalidCredentials
	}
	u.Admin = p.isAdmin(u.Email, u.Admin)

	return p.issue(u)
}

func (p *LocalProvider) issue(u User) (Token, error) {
	now := p.now()
	exp := now.Add(p.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: u.Email,
		Admin: u.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(p.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: exp.Truncate(time.Second), User: u}, nil
}

func (p *LocalProvider) parse(token string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ID == "" || c.Subject == "" || c.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// Authenticate verifies the token and reloads the account, so deleted users
// and revoked tokens are rejected before expiry.
func (p *LocalProvider) Authenticate(ctx context.Context, token string) (User, error) {
	c, err := p.parse(token)
	if err != nil {
		return User{}, err
	}
	if p.isRevoked(c.ID) {
		return User{}, ErrInvalidToken
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return User{}, ErrInvalidToken
	}

	var u User
	row := p.db.QueryRowContext(ctx, p.db.Rebind("SELECT id, email, is_admin FROM users WHERE id = ?"), id)
	if err := row.Scan(&u.ID, &u.Email, &u.Admin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidToken
		}
		return User{}, fmt.Errorf("load user: %w", err)
	}
	u.Admin = p.isAdmin(u.Email, u.Admin)
	return u, nil
}

func (p *LocalProvider) SignOut(_ context.Context, token string) error {
	c, err := p.parse(token)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	for id, exp := range p.revoked {
		if exp.Before(now) {
			delete(p.revoked, id)
		}
	}
	p.revoked[c.ID] = c.ExpiresAt.Time
	return nil
}

func (p *LocalProvider) isRevoked(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.revoked[id]
	return ok
}
