package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("report submission not found")
	ErrDuplicate         = errors.New("a submission for this barangay, report type and period already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalid           = errors.New("invalid submission")
)

type Repository interface {
	Create(ctx context.Context, s *Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Submission, error)
	Update(ctx context.Context, s *Submission) error
	MarkSuperseded(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Submission, int, error)
	// FindActive returns the non-superseded submission of a barangay for a
	// report type and period, or ErrNotFound.
	FindActive(ctx context.Context, barangayID uuid.UUID, reportType, period string) (*Submission, error)
	// ListPending returns every pending submission with its barangay name,
	// grouped by barangay in creation order.
	ListPending(ctx context.Context) ([]*Submission, error)
	// ListForPeriod returns the non-superseded submissions of a period with
	// barangay names, for export.
	ListForPeriod(ctx context.Context, period string) ([]*Submission, error)
}
