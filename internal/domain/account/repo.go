package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*User, int, error)
	// ListActiveByBarangay returns the accounts that receive a barangay's
	// reminder digests.
	ListActiveByBarangay(ctx context.Context, barangayID uuid.UUID) ([]*User, error)
}
