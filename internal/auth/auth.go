// Package auth holds the session side of the OAuth sign-in flow. The OAuth
// handshake itself runs elsewhere and hands over a signed token; this
// package verifies it, persists it and answers "who is signed in".
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the identity the rest of the system scopes records by.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Session is a verified sign-in.
type Session struct {
	User      User      `json:"user"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Event is an auth state transition delivered to subscribers.
type Event string

const (
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// ErrInvalidToken is returned by SignIn for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid session token")

// TokenStore persists the raw session token between runs.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Provider is what the storage facade needs from the auth collaborator.
type Provider interface {
	CurrentUser(ctx context.Context) (*User, error)
	SignIn(ctx context.Context, token string) (*Session, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(Event, *Session)) (unsubscribe func())
}

var _ Provider = (*TokenProvider)(nil)

// Config configures token verification.
type Config struct {
	Secret string
	Issuer string
}

// Claims carried by session tokens. The subject is the owner id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenProvider verifies HS256 session tokens and keeps the current one in a TokenStore.
type TokenProvider struct {
	store  TokenStore
	secret []byte
	issuer string
	now    func() time.Time

	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(Event, *Session)
}

// NewTokenProvider creates a TokenProvider backed by store.
func NewTokenProvider(store TokenStore, cfg Config) *TokenProvider {
	return &TokenProvider{
		store:       store,
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		now:         time.Now,
		subscribers: map[int]func(Event, *Session){},
	}
}

// WithClock overrides the time source used for expiry checks.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	p.now = now
	return p
}

// Issue signs a token for userID valid for ttl. The production issuer is the
// OAuth backend; this exists for local tooling and tests.
func (p *TokenProvider) Issue(userID, email string, ttl time.Duration) (string, error) {
	if len(p.secret) == 0 {
		return "", fmt.Errorf("issue token: no signing secret configured")
	}
	now := p.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks a token without storing it.
func (p *TokenProvider) Verify(tokenString string) (*Session, error) {
	if len(p.secret) == 0 {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Session{
		User:      User{ID: claims.Subject, Email: claims.Email},
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignIn verifies token, persists it and notifies subscribers.
func (p *TokenProvider) SignIn(ctx context.Context, token string) (*Session, error) {
	session, err := p.Verify(token)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	p.emit(EventSignedIn, session)
	return session, nil
}

// SignOut forgets the stored token and notifies subscribers.
func (p *TokenProvider) SignOut(ctx context.Context) error {
	if err := p.store.ClearToken(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.emit(EventSignedOut, nil)
	return nil
}

// Session returns the stored session, or nil when there is none or it no
// longer verifies. Only store read failures are returned as errors.
func (p *TokenProvider) Session(ctx context.Context) (*Session, error) {
	token, err := p.store.LoadToken(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}
	session, err := p.Verify(token)
	if err != nil {
		return nil, nil
	}
	return session, nil
}

// CurrentUser returns the signed-in user, or nil.
func (p *TokenProvider) CurrentUser(ctx context.Context) (*User, error) {
	session, err := p.Session(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	u := session.User
	return &u, nil
}

// Subscribe registers fn for auth state changes and returns a function that
// removes it.
func (p *TokenProvider) Subscribe(fn func(Event, *Session)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}
}

func (p *TokenProvider) emit(ev Event, s *Session) {
	p.mu.Lock()
	fns := make([]func(Event, *Session), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev, s)
	}
}
