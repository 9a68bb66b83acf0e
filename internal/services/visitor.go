package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"visitorgate/internal/domain"
)

// normalizeIDNumber canonicalizes a government ID number so the same
// identity always matches in visitor and blacklist lookups.
func normalizeIDNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type visitorService struct {
	visitorRepo    domain.VisitorRepository
	contextTimeout time.Duration
}

// NewVisitorService creates a VisitorService backed by the given repository.
func NewVisitorService(visitorRepo domain.VisitorRepository, timeout time.Duration) domain.VisitorService {
	return &visitorService{visitorRepo: visitorRepo, contextTimeout: timeout}
}

func (s *visitorService) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Visitor, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	visitors, err := s.visitorRepo.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list visitors: %w", err)
	}
	if visitors == nil {
		visitors = []*domain.Visitor{}
	}
	total, err := s.visitorRepo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count visitors: %w", err)
	}
	return visitors, total, nil
}

func (s *visitorService) GetByIDNumber(ctx context.Context, idNumber string) (*domain.Visitor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	visitor, err := s.visitorRepo.GetByIDNumber(ctx, normalizeIDNumber(idNumber))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get visitor: %w", err)
	}
	return visitor, nil
}
