package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Appointment is a clinic booking made by a patient. It stays pending until
// the patient enters the one-time code emailed to them.
type Appointment struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientName  string     `db:"patient_name" json:"patient_name" validate:"required,max=160"`
	PatientEmail string     `db:"patient_email" json:"patient_email" validate:"required,email"`
	BarangayID   *uuid.UUID `db:"barangay_id" json:"barangay_id,omitempty"`
	Service      string     `db:"service" json:"service" validate:"required,max=80"`
	ScheduledAt  time.Time  `db:"scheduled_at" json:"scheduled_at" validate:"required"`
	Status       string     `db:"status" json:"status"`
	OTPHash      string     `db:"otp_hash" json:"-"`
	OTPExpiresAt *time.Time `db:"otp_expires_at" json:"-"`
	ConfirmedAt  *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
