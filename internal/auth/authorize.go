package auth

// RequireRole is the post-authentication role gate: it passes iff the
// identity was resolved and its role is in the allow-set. It is a pure
// predicate with no side effects.
func RequireRole(id Identity, allowed ...Role) error {
	if id.IsZero() {
		return ErrUnauthenticated
	}
	for _, r := range allowed {
		if id.Role == r {
			return nil
		}
	}
	return ErrForbidden
}
