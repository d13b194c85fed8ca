package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeM1 = "M1"
	TypeM2 = "M2"
)

const (
	StatusDraft      = "draft"
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusSuperseded = "superseded"
)

// PeriodLayout is the time layout of a reporting period label ("2024-06").
const PeriodLayout = "2006-01"

// Submission is one barangay's M1 or M2 report for one period. Rows are
// never deleted; a rejected report that is resubmitted ends as superseded.
type Submission struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	BarangayID   uuid.UUID       `db:"barangay_id" json:"barangay_id"`
	BarangayName string          `db:"barangay_name" json:"barangay_name,omitempty"`
	ReportType   string          `db:"report_type" json:"report_type" validate:"required,oneof=M1 M2"`
	ReportPeriod string          `db:"report_period" json:"report_period" validate:"required,period"`
	DueAt        time.Time       `db:"due_at" json:"due_at"`
	Status       string          `db:"status" json:"status"`
	Payload      json.RawMessage `db:"payload" json:"payload,omitempty"`
	Remarks      *string         `db:"remarks" json:"remarks,omitempty"`
	SubmittedBy  *uuid.UUID      `db:"submitted_by" json:"submitted_by,omitempty"`
	ReviewedBy   *uuid.UUID      `db:"reviewed_by" json:"reviewed_by,omitempty"`
	SubmittedAt  *time.Time      `db:"submitted_at" json:"submitted_at,omitempty"`
	ReviewedAt   *time.Time      `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Editable reports whether the encoder may still change the payload.
func (s *Submission) Editable() bool {
	return s.Status == StatusDraft || s.Status == StatusRejected
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	BarangayID *uuid.UUID
	Status     string
	Period     string
	ReportType string
}

// ParsePeriod returns the first day of a "YYYY-MM" period in UTC.
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, period)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: report period %q is not YYYY-MM", ErrInvalid, period)
	}
	return t, nil
}

// DueDateFor returns the default deadline of a period: midnight in loc on
// the 10th of the following month. A nil loc means UTC.
func DueDateFor(period string, loc *time.Location) (time.Time, error) {
	start, err := ParsePeriod(period)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(start.Year(), start.Month()+1, 10, 0, 0, 0, 0, loc), nil
}
