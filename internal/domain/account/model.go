package account

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is a staff account. A nil BarangayID means the city health office.
type User struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	BarangayID *uuid.UUID `db:"barangay_id" json:"barangay_id,omitempty"`
	Email      string     `db:"email" json:"email" validate:"required,email"`
	FullName   string     `db:"full_name" json:"full_name" validate:"required,max=160"`
	Role       string     `db:"role" json:"role" validate:"required,oneof=admin encoder"`
	Status     string     `db:"status" json:"status" validate:"omitempty,oneof=active inactive"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

func (u *User) IsActive() bool { return u.Status == StatusActive }

// Filter narrows List. Zero values match everything.
type Filter struct {
	BarangayID *uuid.UUID
	Role       string
	Status     string
}
