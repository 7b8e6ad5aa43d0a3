package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadgrid.org/internal/auth"
	"leadgrid.org/internal/store/memory"
	"leadgrid.org/internal/token"
)

// newGuardedServer wires a server whose codec clock the test controls, so it
// can mint already-expired access tokens.
func newGuardedServer(t *testing.T) (*httptest.Server, *memory.Store, *token.Codec) {
	t.Helper()
	store := memory.New()
	codec := newTestCodec(t)
	api := New(ReadyProbe{}, "test", Deps{
		Sessions:     auth.NewService(store.Users(), codec),
		Workflows:    store.Workflows(),
		Appointments: store.Appointments(),
		Executions:   store.Executions(),
	})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv, store, codec
}

func getMe(t *testing.T, srv *httptest.Server, access, refresh string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/auth/me", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	if refresh != "" {
		req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: refresh})
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	resp.Body.Close()
	return resp
}

func TestRefreshFallbackRenewsAccessToken(t *testing.T) {
	srv, store, codec := newGuardedServer(t)
	_, access := signupUser(t, srv, "ada@example.com", "")

	resp := getMe(t, srv, access, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fresh access: status = %d", resp.StatusCode)
	}
	if resp.Header.Get(renewedTokenHeader) != "" {
		t.Fatal("fresh access must not trigger a renewal")
	}

	// Rewind the codec clock to mint an access token that is already expired,
	// then restore it so verification sees real time.
	user, err := store.Users().FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	codec.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, _, err := codec.SignWithTTL(token.Access, user.ID, "user", time.Hour)
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}
	codec.WithClock(time.Now)

	resp = getMe(t, srv, expired, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired access, no refresh: status = %d, want 401", resp.StatusCode)
	}

	resp = getMe(t, srv, expired, user.RefreshToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh fallback: status = %d, want 200", resp.StatusCode)
	}
	renewed := resp.Header.Get(renewedTokenHeader)
	if renewed == "" {
		t.Fatalf("refresh fallback must surface a renewed token in %s", renewedTokenHeader)
	}

	resp = getMe(t, srv, renewed, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("renewed token: status = %d", resp.StatusCode)
	}
}

func TestTamperedAccessTokenIsTerminal(t *testing.T) {
	srv, store, _ := newGuardedServer(t)
	_, access := signupUser(t, srv, "ada@example.com", "")

	user, err := store.Users().FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}

	// A valid refresh cookie must not rescue a corrupted access token.
	tampered := access[:len(access)-4] + "AAAA"
	resp := getMe(t, srv, tampered, user.RefreshToken)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tampered access with refresh: status = %d, want 401", resp.StatusCode)
	}
}

func TestRefreshOnlyCookieAuthenticates(t *testing.T) {
	srv, store, _ := newGuardedServer(t)
	signupUser(t, srv, "ada@example.com", "")

	user, err := store.Users().FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	resp := getMe(t, srv, "", user.RefreshToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh only: status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(renewedTokenHeader) == "" {
		t.Fatal("refresh-only auth should hand out an access token")
	}
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	srv, store, _ := newGuardedServer(t)
	_, access := signupUser(t, srv, "ada@example.com", "")

	user, err := store.Users().FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	refresh := user.RefreshToken

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: status = %d", resp.StatusCode)
	}

	if got := getMe(t, srv, "", refresh); got.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: status = %d, want 401", got.StatusCode)
	}
}

func TestMalformedBearerSchemeRejected(t *testing.T) {
	srv, _, _ := newGuardedServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/auth/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("basic scheme: status = %d, want 401", resp.StatusCode)
	}
}
