package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadgrid.org/internal/auth"
	"leadgrid.org/internal/store/memory"
)

func TestRequestIDEchoedAndGenerated(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatal("response must carry a generated request id")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q, want echo of caller's", got)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}

func TestCORSPreflightFromLocalOrigin(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/workflows", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight: status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow-origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Expose-Headers"); got != renewedTokenHeader {
		t.Fatalf("expose-headers = %q, want %q", got, renewedTokenHeader)
	}
}

func TestRateLimitReturns429WithRequestID(t *testing.T) {
	store := memory.New()
	codec := newTestCodec(t)
	api := New(ReadyProbe{}, "test", Deps{
		Sessions:     auth.NewService(store.Users(), codec),
		Workflows:    store.Workflows(),
		Appointments: store.Appointments(),
		Executions:   store.Executions(),
	})
	api.SetRateLimit(1, 1)
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	// First request drains the single-token bucket; the next must be limited.
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first request: status = %d", resp.StatusCode)
	}

	var limited *http.Response
	for i := 0; i < 5; i++ {
		resp, err = http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = resp
			break
		}
		resp.Body.Close()
	}
	if limited == nil {
		t.Fatal("burst of requests never hit the rate limit")
	}
	defer limited.Body.Close()

	if got := limited.Header.Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q, want %q", got, "1")
	}
	var body map[string]any
	if err := json.NewDecoder(limited.Body).Decode(&body); err != nil {
		t.Fatalf("decode 429 body: %v", err)
	}
	if body["error"] != "rate limit exceeded" {
		t.Fatalf("429 error = %v", body["error"])
	}
	if body["request_id"] == "" || body["request_id"] == nil {
		t.Fatal("429 body must carry the request id")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	// Unknown paths sit behind the session guard like everything else.
	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous unknown route: status = %d, want 401", resp.StatusCode)
	}

	_, access := signupUser(t, srv, "ada@example.com", "")
	code, _, _ := doJSON(t, http.MethodGet, srv.URL+"/nope", access, nil)
	if code != http.StatusNotFound {
		t.Fatalf("authenticated unknown route: status = %d, want 404", code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	huge := make([]byte, (1<<20)+1024)
	for i := range huge {
		huge[i] = 'a'
	}
	code, _, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/signup", "", map[string]any{
		"email": "big@example.com", "password": string(huge),
	})
	if code != http.StatusBadRequest {
		t.Fatalf("oversized body: status = %d, want 400", code)
	}
}
