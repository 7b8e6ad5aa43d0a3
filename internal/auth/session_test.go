package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadgrid.org/internal/token"
)

type fakeUserStore struct {
	users map[string]*User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*User)}
}

func (f *fakeUserStore) Create(_ context.Context, u *User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return ErrAlreadyExists
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) Find(_ context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeUserStore) List(_ context.Context) ([]*User, error) {
	var out []*User
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUserStore) UpdateRefreshToken(_ context.Context, userID, refreshToken string) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = refreshToken
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStore, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	store := newFakeUserStore()
	return NewService(store, codec), store, codec
}

func signupUser(t *testing.T, svc *Service) (TokenPair, Identity) {
	t.Helper()
	pair, id, err := svc.Signup(context.Background(), "lead@example.com", "hunter2hunter2", RoleUser)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	return pair, id
}

func TestAuthenticateNoCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Authenticate(context.Background(), "", "")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticateValidAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	pair, id := signupUser(t, svc)

	sess, err := svc.Authenticate(context.Background(), pair.AccessToken, "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Identity != id {
		t.Fatalf("unexpected identity: %+v", sess.Identity)
	}
	if sess.RenewedAccess != "" {
		t.Fatalf("no renewal expected on the success path")
	}
}

func TestAuthenticateTamperedAccessTokenIsTerminal(t *testing.T) {
	svc, _, _ := newTestService(t)
	pair, _ := signupUser(t, svc)

	// Valid refresh token is present, but a non-expired access failure must
	// not fall through to it.
	tampered := pair.AccessToken + "x"
	_, err := svc.Authenticate(context.Background(), tampered, pair.RefreshToken)
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func expiredAccessToken(t *testing.T, codec *token.Codec, userID string) string {
	t.Helper()
	codec.WithClock(func() time.Time { return time.Now().Add(-72 * time.Hour) })
	defer codec.WithClock(time.Now)
	raw, _, err := codec.SignWithTTL(token.Access, userID, string(RoleUser), time.Minute)
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	return raw
}

func TestRefreshFallbackRenewsAccess(t *testing.T) {
	svc, _, codec := newTestService(t)
	pair, id := signupUser(t, svc)
	expired := expiredAccessToken(t, codec, id.UserID)

	sess, err := svc.Authenticate(context.Background(), expired, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Identity != id {
		t.Fatalf("unexpected identity: %+v", sess.Identity)
	}
	if sess.RenewedAccess == "" {
		t.Fatal("expected a renewed access token")
	}
	claims, err := codec.Verify(token.Access, sess.RenewedAccess)
	if err != nil {
		t.Fatalf("renewed token does not verify: %v", err)
	}
	if claims.UserID() != id.UserID {
		t.Fatalf("renewed token subject mismatch: %s", claims.UserID())
	}
}

func TestExpiredAccessWithoutRefreshIsUnauthenticated(t *testing.T) {
	svc, _, codec := newTestService(t)
	_, id := signupUser(t, svc)
	expired := expiredAccessToken(t, codec, id.UserID)

	_, err := svc.Authenticate(context.Background(), expired, "")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestStaleRefreshTokenRejected(t *testing.T) {
	svc, _, codec := newTestService(t)
	first, id := signupUser(t, svc)

	// A second login supersedes the first refresh token; only the latest
	// stored value may be exchanged.
	if _, _, err := svc.Login(context.Background(), "lead@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	expired := expiredAccessToken(t, codec, id.UserID)
	_, err := svc.Authenticate(context.Background(), expired, first.RefreshToken)
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for superseded refresh token, got %v", err)
	}
}

func TestRefreshForUnknownUserRejected(t *testing.T) {
	svc, _, codec := newTestService(t)
	raw, _, err := codec.Sign(token.Refresh, "ghost-user", string(RoleUser))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	_, authErr := svc.Authenticate(context.Background(), "", raw)
	if !errors.Is(authErr, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", authErr)
	}
}

func TestRefreshOnlyCredentialWorks(t *testing.T) {
	svc, _, _ := newTestService(t)
	pair, id := signupUser(t, svc)

	sess, err := svc.Authenticate(context.Background(), "", pair.RefreshToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Identity != id {
		t.Fatalf("unexpected identity: %+v", sess.Identity)
	}
	if sess.RenewedAccess == "" {
		t.Fatal("expected a renewed access token")
	}
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	pair, id := signupUser(t, svc)

	if err := svc.Logout(context.Background(), id.UserID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	_, err := svc.Authenticate(context.Background(), "", pair.RefreshToken)
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential after logout, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	signupUser(t, svc)

	_, _, err := svc.Login(context.Background(), "lead@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, _, err := svc.Signup(context.Background(), "not-an-email", "hunter2hunter2", RoleUser); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}
	if _, _, err := svc.Signup(context.Background(), "a@b.co", "short", RoleUser); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
}
