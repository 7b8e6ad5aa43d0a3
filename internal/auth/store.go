package auth

import "context"

// UserStore describes the persistence operations the auth subsystem needs.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	// UpdateRefreshToken overwrites the stored refresh token. An empty token
	// clears it (logout).
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
}
