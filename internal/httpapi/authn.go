package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"leadgrid.org/internal/auth"
	"leadgrid.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "

	// renewedTokenHeader carries a transparently renewed access token back
	// to the client when the presented one had expired.
	renewedTokenHeader = "X-Access-Token"

	refreshCookieName = "leadgrid_refresh"
)

var publicPaths = []string{
	"/v1/auth/signup",
	"/v1/auth/login",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
	"/",
}

// withSession is the per-request gate: it resolves an identity from the
// bearer access token and/or the refresh cookie, or rejects the request.
func (a *API) withSession(next http.Handler) http.Handler {
	if a == nil || a.sessions == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		accessToken := ""
		if header := r.Header.Get(authHeader); strings.TrimSpace(header) != "" {
			token, err := extractBearerToken(header)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			accessToken = token
		}
		refreshToken := ""
		if cookie, err := r.Cookie(refreshCookieName); err == nil {
			refreshToken = cookie.Value
		}

		sess, err := a.sessions.Authenticate(r.Context(), accessToken, refreshToken)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		if sess.RenewedAccess != "" {
			w.Header().Set(renewedTokenHeader, sess.RenewedAccess)
			obs.AccessTokenRenewals.Inc()
		}

		ctx := auth.ContextWithIdentity(r.Context(), sess.Identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole enforces the role gate and writes the error response itself.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, allowed ...auth.Role) (auth.Identity, bool) {
	id, _ := auth.IdentityFromContext(r.Context())
	if err := auth.RequireRole(id, allowed...); err != nil {
		handleAuthError(w, r, err)
		return auth.Identity{}, false
	}
	return id, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errInvalidAuthScheme
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errMissingBearer
	}
	return token, nil
}

var (
	errInvalidAuthScheme = errors.New("invalid authorization scheme")
	errMissingBearer     = errors.New("missing bearer token")
)

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
