// Package token signs and verifies the two bearer-token kinds used by the
// API: short-lived access tokens and longer-lived refresh tokens. The kinds
// are signed with distinct HS256 secrets so that one can never be presented
// in place of the other.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects which secret and default lifetime apply.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Verification failures carry exactly one of these causes. Callers branch on
// Expired to decide whether a refresh-token fallback is worth attempting;
// the other two are terminal.
var (
	ErrExpired      = errors.New("token: expired")
	ErrMalformed    = errors.New("token: malformed")
	ErrVerification = errors.New("token: verification failed")
)

// Claims is the payload carried by both token kinds.
type Claims struct {
	Role string `json:"role"`
	Kind string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// Config carries the signing material and lifetimes for both kinds. Both
// secrets are mandatory; construction fails without them so a misconfigured
// process never starts serving.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Codec signs and verifies tokens of both kinds.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewCodec validates cfg and builds a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" {
		return nil, errors.New("token: access secret is not configured")
	}
	if strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, errors.New("token: refresh secret is not configured")
	}
	c := &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = defaultAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = defaultRefreshTTL
	}
	return c, nil
}

// WithClock overrides the time source. Test use only.
func (c *Codec) WithClock(fn func() time.Time) *Codec {
	if fn != nil {
		c.now = fn
	}
	return c
}

// Sign issues a token of the given kind with the kind's default lifetime.
func (c *Codec) Sign(kind Kind, userID, role string) (string, time.Time, error) {
	return c.SignWithTTL(kind, userID, role, 0)
}

// SignWithTTL issues a token with an explicit lifetime override. A zero or
// negative ttl falls back to the kind's default.
func (c *Codec) SignWithTTL(kind Kind, userID, role string, ttl time.Duration) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("token: userID is required")
	}
	secret, defTTL, err := c.kindParams(kind)
	if err != nil {
		return "", time.Time{}, err
	}
	if ttl <= 0 {
		ttl = defTTL
	}

	now := c.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Role: role,
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

// Verify checks signature, expiry and kind. The returned error is one of
// ErrExpired, ErrMalformed or ErrVerification; an expired token implies the
// signature itself was valid.
func (c *Codec) Verify(kind Kind, raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMalformed
	}
	secret, _, err := c.kindParams(kind)
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrMalformed
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrMalformed
		default:
			return nil, ErrVerification
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrVerification
	}
	if claims.Kind != string(kind) {
		return nil, ErrMalformed
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, ErrVerification
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

func (c *Codec) kindParams(kind Kind) ([]byte, time.Duration, error) {
	switch kind {
	case Access:
		return c.accessSecret, c.accessTTL, nil
	case Refresh:
		return c.refreshSecret, c.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("token: unknown kind %q", kind)
	}
}

// ParseLifetime parses a bounded lifetime expression of the form
// "<integer><unit>" where unit is s, m, h or d. Examples: "90s", "15m",
// "12h", "7d".
func ParseLifetime(expr string) (time.Duration, error) {
	expr = strings.TrimSpace(expr)
	if len(expr) < 2 {
		return 0, fmt.Errorf("token: invalid lifetime %q", expr)
	}
	unit := expr[len(expr)-1]
	n, err := strconv.Atoi(expr[:len(expr)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("token: invalid lifetime %q", expr)
	}
	switch unit {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("token: invalid lifetime unit %q", string(unit))
	}
}
