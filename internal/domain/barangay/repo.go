package barangay

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("barangay not found")
	ErrDuplicate = errors.New("barangay name already exists")
)

type Repository interface {
	Create(ctx context.Context, b *Barangay) error
	GetByID(ctx context.Context, id uuid.UUID) (*Barangay, error)
	List(ctx context.Context, limit, offset int) ([]*Barangay, int, error)
}
