package httpapi

import (
	"net/http"

	"leadgrid.org/internal/auth"
)

// handleUsers lists every account. Superadmin only.
func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireRole(w, r, auth.RoleSuperAdmin); !ok {
		return
	}
	users, err := a.sessions.Users().List(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}
