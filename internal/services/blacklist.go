package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"visitorgate/internal/domain"
)

type blacklistService struct {
	blacklistRepo  domain.BlacklistRepository
	visitRepo      domain.VisitRequestRepository
	visitorRepo    domain.VisitorRepository
	publisher      domain.VisitEventPublisher
	contextTimeout time.Duration
}

// NewBlacklistService creates a BlacklistService with the given repositories
// and event publisher. publisher may be nil; lifecycle events are then dropped.
func NewBlacklistService(blacklistRepo domain.BlacklistRepository,
	visitRepo domain.VisitRequestRepository,
	visitorRepo domain.VisitorRepository,
	publisher domain.VisitEventPublisher,
	timeout time.Duration,
) domain.BlacklistService {
	return &blacklistService{
		blacklistRepo:  blacklistRepo,
		visitRepo:      visitRepo,
		visitorRepo:    visitorRepo,
		publisher:      publisher,
		contextTimeout: timeout,
	}
}

func (s *blacklistService) Add(ctx context.Context, addedBy, idNumber, reason string) (*domain.BlacklistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	idNumber = normalizeIDNumber(idNumber)
	if idNumber == "" {
		return nil, fmt.Errorf("id number is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("reason is required")
	}

	entry := domain.NewBlacklistEntry(idNumber, reason, addedBy, time.Now())
	if err := s.blacklistRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrAlreadyBlacklisted) {
			return nil, domain.ErrAlreadyBlacklisted
		}
		return nil, fmt.Errorf("create blacklist entry: %w", err)
	}

	if err := s.revokeApprovals(ctx, idNumber); err != nil {
		return nil, err
	}

	return entry, nil
}

// revokeApprovals denies every approved, not yet checked-in request held by
// the newly blacklisted identity.
func (s *blacklistService) revokeApprovals(ctx context.Context, idNumber string) error {
	requests, err := s.visitRepo.ListApprovedByIDNumber(ctx, idNumber)
	if err != nil {
		return fmt.Errorf("list approved requests: %w", err)
	}
	if len(requests) == 0 {
		return nil
	}

	visitor, err := s.visitorRepo.GetByIDNumber(ctx, idNumber)
	if err != nil {
		visitor = nil
	}

	revokedAny := false
	for _, req := range requests {
		now := time.Now()
		revoked, err := s.visitRepo.MarkDenied(ctx, req.ID, domain.VisitApproved, domain.DenialRetroactiveBlacklist, now)
		if err != nil {
			return fmt.Errorf("revoke approval %s: %w", req.ID, err)
		}
		if !revoked {
			// Moved on concurrently; the gate re-check covers checked-in rows.
			continue
		}
		revokedAny = true
		req.Status = domain.VisitDenied
		req.DenialReason = domain.DenialRetroactiveBlacklist
		req.DecidedAt = &now
		s.publish(domain.VisitEvent{Kind: domain.KindVisitDenied, Request: req, Visitor: visitor, Reason: domain.DenialRetroactiveBlacklist, At: now})
	}
	if revokedAny {
		s.publish(domain.VisitEvent{Kind: domain.KindSecurityAlert, Visitor: visitor, Reason: "approved visits revoked by blacklist", At: time.Now()})
	}
	return nil
}

func (s *blacklistService) Remove(ctx context.Context, idNumber string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.blacklistRepo.Remove(ctx, normalizeIDNumber(idNumber)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove blacklist entry: %w", err)
	}
	return nil
}

func (s *blacklistService) IsBlacklisted(ctx context.Context, idNumber string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	blacklisted, err := s.blacklistRepo.IsBlacklisted(ctx, normalizeIDNumber(idNumber))
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return blacklisted, nil
}

func (s *blacklistService) List(ctx context.Context, p domain.PaginationParams) ([]*domain.BlacklistEntry, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	entries, err := s.blacklistRepo.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list blacklist entries: %w", err)
	}
	if entries == nil {
		entries = []*domain.BlacklistEntry{}
	}
	total, err := s.blacklistRepo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count blacklist entries: %w", err)
	}
	return entries, total, nil
}

func (s *blacklistService) publish(event domain.VisitEvent) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}
