package auth

import "context"

// UserStore describes the persistence operations the session layer needs.
// The store is an external collaborator: the core only creates accounts at
// registration and resolves ids on authenticated requests.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
