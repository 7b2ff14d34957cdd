package users

import (
	"context"
)

// Repository stores accounts. Lookups of unknown users return
// common.ErrorNotFound; Create of a taken email returns ErrEmailTaken.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update applies fn to the stored user atomically.
	Update(ctx context.Context, id string, fn func(u *User) error) (*User, error)
	Delete(ctx context.Context, id string) error
}
