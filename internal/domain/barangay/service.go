package barangay

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, b *Barangay) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.Create(ctx, b)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Barangay, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Barangay, int, error) {
	return s.repo.List(ctx, limit, offset)
}
