package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrInvalidOTP        = errors.New("invalid confirmation code")
	ErrOTPExpired        = errors.New("confirmation code has expired")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
	ErrOTPDelivery       = errors.New("confirmation code could not be sent")
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error)
}
