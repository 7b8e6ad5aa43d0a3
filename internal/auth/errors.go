package auth

import "errors"

var (
	// ErrUnauthenticated means no usable credential was presented.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrInvalidCredential means a credential was presented but rejected.
	// Clients see the same 401 as ErrUnauthenticated; the distinction only
	// drives internal branching.
	ErrInvalidCredential = errors.New("auth: invalid credential")
	// ErrForbidden means the identity is valid but the role is not allowed.
	ErrForbidden = errors.New("auth: forbidden")

	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")
)
