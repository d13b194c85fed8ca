package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	switch u.Role {
	case auth.RoleEncoder:
		if u.BarangayID == nil || *u.BarangayID == uuid.Nil {
			return fmt.Errorf("barangay_id is required for encoders")
		}
	case auth.RoleAdmin:
		u.BarangayID = nil
	default:
		return fmt.Errorf("invalid role: %q", u.Role)
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if err := validStatus(u.Status); err != nil {
		return err
	}
	return s.repo.Create(ctx, u)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// SetStatus activates or deactivates an account. Inactive accounts stop
// receiving reminder digests on the next run.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*User, error) {
	if err := validStatus(status); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListActiveByBarangay(ctx context.Context, barangayID uuid.UUID) ([]*User, error) {
	return s.repo.ListActiveByBarangay(ctx, barangayID)
}

func validStatus(status string) error {
	if status != StatusActive && status != StatusInactive {
		return fmt.Errorf("invalid status: %q", status)
	}
	return nil
}
