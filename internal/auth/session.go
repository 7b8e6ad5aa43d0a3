package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadgrid.org/internal/ids"
	"leadgrid.org/internal/token"
)

// Service authenticates requests and manages credential issuance. It is the
// single owner of identity resolution: handlers only ever see an Identity it
// produced.
type Service struct {
	users UserStore
	codec *token.Codec
	now   func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service over the given user store and codec.
func NewService(users UserStore, codec *token.Codec, opts ...Option) *Service {
	s := &Service{users: users, codec: codec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenPair carries freshly issued credentials.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Session is the result of a successful Authenticate call. RenewedAccess is
// non-empty only when an expired access token was transparently replaced via
// the refresh fallback; the HTTP layer surfaces it out-of-band.
type Session struct {
	Identity      Identity
	RenewedAccess string
}

// Authenticate establishes an identity from an optional access token and an
// optional refresh token.
//
// The branch order is deliberate: a present-but-invalid access token is
// terminal even when a refresh token is also available. Only the Expired
// cause falls through to the refresh exchange, and the exchange is a single
// attempt with no further fallback.
func (s *Service) Authenticate(ctx context.Context, accessToken, refreshToken string) (Session, error) {
	accessToken = strings.TrimSpace(accessToken)
	refreshToken = strings.TrimSpace(refreshToken)
	if accessToken == "" && refreshToken == "" {
		return Session{}, ErrUnauthenticated
	}

	if accessToken != "" {
		claims, err := s.codec.Verify(token.Access, accessToken)
		switch {
		case err == nil:
			return Session{Identity: identityFromClaims(claims)}, nil
		case errors.Is(err, token.ErrExpired):
			// fall through to the refresh exchange
		default:
			return Session{}, ErrInvalidCredential
		}
	}

	if refreshToken != "" {
		return s.exchangeRefresh(ctx, refreshToken)
	}
	return Session{}, ErrUnauthenticated
}

func (s *Service) exchangeRefresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.codec.Verify(token.Refresh, refreshToken)
	if err != nil {
		return Session{}, ErrInvalidCredential
	}
	user, err := s.users.Find(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredential
		}
		return Session{}, err
	}
	// The stored token is the only live one; a superseded token verifies in
	// isolation but must be rejected here.
	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return Session{}, ErrInvalidCredential
	}

	renewed, _, err := s.codec.Sign(token.Access, user.ID, string(user.Role))
	if err != nil {
		return Session{}, fmt.Errorf("renew access token: %w", err)
	}
	return Session{
		Identity:      Identity{UserID: user.ID, Role: user.Role},
		RenewedAccess: renewed,
	}, nil
}

// Signup registers a user and issues an initial token pair.
func (s *Service) Signup(ctx context.Context, email, password string, role Role) (TokenPair, Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return TokenPair{}, Identity{}, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len(password) < 8 {
		return TokenPair{}, Identity{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if role == "" {
		role = RoleUser
	}
	hash, err := HashPassword(password)
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	user := &User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return TokenPair{}, Identity{}, err
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	return pair, Identity{UserID: user.ID, Role: user.Role}, nil
}

// Login verifies credentials and issues a fresh token pair, superseding any
// previously stored refresh token.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, Identity{}, ErrInvalidCredential
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, Identity{}, ErrInvalidCredential
		}
		return TokenPair{}, Identity{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, Identity{}, ErrInvalidCredential
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	return pair, Identity{UserID: user.ID, Role: user.Role}, nil
}

// Logout clears the stored refresh token so the current one can never be
// exchanged again.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.users.UpdateRefreshToken(ctx, userID, "")
}

// Users exposes read access for handlers that list or load accounts.
func (s *Service) Users() UserStore { return s.users }

func (s *Service) issuePair(ctx context.Context, user *User) (TokenPair, error) {
	access, accessExp, err := s.codec.Sign(token.Access, user.ID, string(user.Role))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.codec.Sign(token.Refresh, user.ID, string(user.Role))
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func identityFromClaims(claims *token.Claims) Identity {
	role, ok := ParseRole(claims.Role)
	if !ok {
		role = RoleUser
	}
	return Identity{UserID: claims.UserID(), Role: role}
}
