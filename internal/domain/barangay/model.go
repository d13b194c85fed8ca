package barangay

import (
	"time"

	"github.com/google/uuid"
)

// Barangay is a municipal sub-unit that owns report submissions and
// encoder accounts.
type Barangay struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=120"`
	Code      *string   `db:"code" json:"code,omitempty" validate:"omitempty,max=32"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
