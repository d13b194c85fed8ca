package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TxRunner runs fn in a database transaction. Repository calls made with
// the ctx it passes join that transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Actor is the caller of a lifecycle operation. A zero Barangay means city
// health office staff, who may act on every barangay.
type Actor struct {
	UserID   *uuid.UUID
	Barangay uuid.UUID
}

func (a Actor) canAccess(s *Submission) bool {
	return a.Barangay == uuid.Nil || a.Barangay == s.BarangayID
}

type Service struct {
	repo   Repository
	withTx TxRunner
	loc    *time.Location
	now    func() time.Time
}

// NewService builds the submission service. loc is the zone deadlines are
// set in; nil means UTC.
func NewService(repo Repository, withTx TxRunner, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, withTx: withTx, loc: loc, now: time.Now}
}

// SaveDraft creates a draft for a period that has no live submission yet.
// The due date defaults to DueDateFor(period) in the service zone.
func (s *Service) SaveDraft(ctx context.Context, sub *Submission) error {
	if sub.BarangayID == uuid.Nil {
		return fmt.Errorf("%w: barangay_id is required", ErrInvalid)
	}
	if sub.ReportType != TypeM1 && sub.ReportType != TypeM2 {
		return fmt.Errorf("%w: report type %q", ErrInvalid, sub.ReportType)
	}
	if sub.DueAt.IsZero() {
		due, err := DueDateFor(sub.ReportPeriod, s.loc)
		if err != nil {
			return err
		}
		sub.DueAt = due
	} else if _, err := ParsePeriod(sub.ReportPeriod); err != nil {
		return err
	}
	if err := normalizePayload(sub); err != nil {
		return err
	}

	_, err := s.repo.FindActive(ctx, sub.BarangayID, sub.ReportType, sub.ReportPeriod)
	switch {
	case err == nil:
		return ErrDuplicate
	case !errors.Is(err, ErrNotFound):
		return err
	}

	sub.Status = StatusDraft
	sub.SubmittedAt, sub.ReviewedAt = nil, nil
	sub.SubmittedBy, sub.ReviewedBy = nil, nil
	return s.repo.Create(ctx, sub)
}

// Edit replaces the payload of a draft or rejected submission. Only office
// staff may move the due date.
func (s *Service) Edit(ctx context.Context, actor Actor, id uuid.UUID, payload json.RawMessage, dueAt *time.Time) (*Submission, error) {
	sub, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !sub.Editable() {
		return nil, fmt.Errorf("%w: %s submissions cannot be edited", ErrInvalidTransition, sub.Status)
	}
	if payload != nil {
		sub.Payload = payload
		if err := normalizePayload(sub); err != nil {
			return nil, err
		}
	}
	if dueAt != nil && actor.Barangay == uuid.Nil {
		sub.DueAt = *dueAt
	}
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Submit sends a draft for review. Submitting a rejected report supersedes
// it and creates a fresh pending row for the same period.
func (s *Service) Submit(ctx context.Context, actor Actor, id uuid.UUID) (*Submission, error) {
	sub, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	switch sub.Status {
	case StatusDraft:
		sub.Status = StatusPending
		sub.SubmittedAt = &now
		sub.SubmittedBy = actor.UserID
		if err := s.repo.Update(ctx, sub); err != nil {
			return nil, err
		}
		return sub, nil

	case StatusRejected:
		next := &Submission{
			BarangayID:   sub.BarangayID,
			BarangayName: sub.BarangayName,
			ReportType:   sub.ReportType,
			ReportPeriod: sub.ReportPeriod,
			DueAt:        sub.DueAt,
			Status:       StatusPending,
			Payload:      sub.Payload,
			SubmittedBy:  actor.UserID,
			SubmittedAt:  &now,
		}
		err := s.withTx(ctx, func(ctx context.Context) error {
			if err := s.repo.MarkSuperseded(ctx, sub.ID); err != nil {
				return fmt.Errorf("supersede %s: %w", sub.ID, err)
			}
			return s.repo.Create(ctx, next)
		})
		if err != nil {
			return nil, err
		}
		return next, nil

	default:
		return nil, fmt.Errorf("%w: cannot submit a %s report", ErrInvalidTransition, sub.Status)
	}
}

// Approve accepts a pending submission.
func (s *Service) Approve(ctx context.Context, reviewer *uuid.UUID, id uuid.UUID) (*Submission, error) {
	return s.review(ctx, reviewer, id, StatusApproved, nil)
}

// Reject returns a pending submission to its barangay with remarks.
func (s *Service) Reject(ctx context.Context, reviewer *uuid.UUID, id uuid.UUID, remarks string) (*Submission, error) {
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return nil, fmt.Errorf("%w: remarks are required when rejecting a report", ErrInvalid)
	}
	return s.review(ctx, reviewer, id, StatusRejected, &remarks)
}

func (s *Service) review(ctx context.Context, reviewer *uuid.UUID, id uuid.UUID, status string, remarks *string) (*Submission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, status)
	}
	now := s.now()
	sub.Status = status
	sub.Remarks = remarks
	sub.ReviewedBy = reviewer
	sub.ReviewedAt = &now
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Get returns a submission visible to actor. Submissions of other
// barangays read as not found.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Submission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(sub) {
		return nil, ErrNotFound
	}
	return sub, nil
}

// List pins encoders to their own barangay regardless of the filter.
func (s *Service) List(ctx context.Context, actor Actor, f Filter, limit, offset int) ([]*Submission, int, error) {
	if actor.Barangay != uuid.Nil {
		b := actor.Barangay
		f.BarangayID = &b
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListPending(ctx context.Context) ([]*Submission, error) {
	return s.repo.ListPending(ctx)
}

func (s *Service) ListForPeriod(ctx context.Context, period string) ([]*Submission, error) {
	if _, err := ParsePeriod(period); err != nil {
		return nil, err
	}
	return s.repo.ListForPeriod(ctx, period)
}

func normalizePayload(sub *Submission) error {
	if len(sub.Payload) == 0 {
		sub.Payload = json.RawMessage(`{}`)
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(sub.Payload, &obj); err != nil {
		return fmt.Errorf("%w: payload must be a JSON object: %v", ErrInvalid, err)
	}
	if obj == nil {
		sub.Payload = json.RawMessage(`{}`)
	}
	return nil
}
