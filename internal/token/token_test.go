package token

import (
	"errors"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "leadgrid-test",
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestNewCodecRequiresBothSecrets(t *testing.T) {
	if _, err := NewCodec(Config{RefreshSecret: "x"}); err == nil {
		t.Fatal("expected error for missing access secret")
	}
	if _, err := NewCodec(Config{AccessSecret: "x"}); err == nil {
		t.Fatal("expected error for missing refresh secret")
	}
	if _, err := NewCodec(Config{AccessSecret: "a", RefreshSecret: "  "}); err == nil {
		t.Fatal("expected error for blank refresh secret")
	}
}

func TestRoundTripBothKinds(t *testing.T) {
	c := newTestCodec(t)
	for _, kind := range []Kind{Access, Refresh} {
		raw, exp, err := c.Sign(kind, "user-1", "admin")
		if err != nil {
			t.Fatalf("Sign %s: %v", kind, err)
		}
		if !exp.After(time.Now()) {
			t.Fatalf("expected future expiry, got %v", exp)
		}
		claims, err := c.Verify(kind, raw)
		if err != nil {
			t.Fatalf("Verify %s: %v", kind, err)
		}
		if claims.UserID() != "user-1" {
			t.Fatalf("subject not preserved: %s", claims.UserID())
		}
		if claims.Role != "admin" {
			t.Fatalf("role not preserved: %s", claims.Role)
		}
	}
}

func TestKindsAreNotInterchangeable(t *testing.T) {
	c := newTestCodec(t)
	raw, _, err := c.Sign(Refresh, "user-1", "user")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := c.Verify(Access, raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed verifying refresh token as access, got %v", err)
	}
}

func TestExpiredTokenYieldsExpiredCause(t *testing.T) {
	c := newTestCodec(t)
	past := time.Now().Add(-48 * time.Hour)
	c.WithClock(func() time.Time { return past })
	raw, _, err := c.SignWithTTL(Access, "user-1", "user", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	c.WithClock(time.Now)

	_, err = c.Verify(Access, raw)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestWrongSecretNeverReportsExpired(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec(Config{AccessSecret: "completely-different", RefreshSecret: "also-different"})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	// Sign an already-expired token under the wrong secret: the signature
	// failure must win over expiry.
	past := time.Now().Add(-48 * time.Hour)
	other.WithClock(func() time.Time { return past })
	raw, _, err := other.SignWithTTL(Access, "user-1", "user", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, err = c.Verify(Access, raw)
	if errors.Is(err, ErrExpired) {
		t.Fatalf("wrong-secret token reported as expired")
	}
	if !errors.Is(err, ErrMalformed) && !errors.Is(err, ErrVerification) {
		t.Fatalf("expected malformed/verification cause, got %v", err)
	}
}

func TestGarbageTokenIsMalformed(t *testing.T) {
	c := newTestCodec(t)
	for _, raw := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		if _, err := c.Verify(Access, raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("token %q: expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestParseLifetime(t *testing.T) {
	cases := map[string]time.Duration{
		"90s": 90 * time.Second,
		"15m": 15 * time.Minute,
		"12h": 12 * time.Hour,
		"7d":  7 * 24 * time.Hour,
	}
	for expr, want := range cases {
		got, err := ParseLifetime(expr)
		if err != nil {
			t.Fatalf("ParseLifetime(%q): %v", expr, err)
		}
		if got != want {
			t.Fatalf("ParseLifetime(%q) = %v, want %v", expr, got, want)
		}
	}
	for _, expr := range []string{"", "d", "7w", "-3h", "0m", "h7"} {
		if _, err := ParseLifetime(expr); err == nil {
			t.Fatalf("ParseLifetime(%q): expected error", expr)
		}
	}
}
