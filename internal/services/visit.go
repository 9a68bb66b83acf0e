package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"visitorgate/internal/domain"
)

type visitService struct {
	visitRepo      domain.VisitRequestRepository
	visitorRepo    domain.VisitorRepository
	userRepo       domain.UserRepository
	blacklistRepo  domain.BlacklistRepository
	accessLogRepo  domain.AccessLogRepository
	publisher      domain.VisitEventPublisher
	contextTimeout time.Duration
}

// NewVisitService creates a VisitService with the given repositories and
// event publisher. publisher may be nil; lifecycle events are then dropped.
func NewVisitService(visitRepo domain.VisitRequestRepository,
	visitorRepo domain.VisitorRepository,
	userRepo domain.UserRepository,
	blacklistRepo domain.BlacklistRepository,
	accessLogRepo domain.AccessLogRepository,
	publisher domain.VisitEventPublisher,
	timeout time.Duration,
) domain.VisitService {
	return &visitService{
		visitRepo:      visitRepo,
		visitorRepo:    visitorRepo,
		userRepo:       userRepo,
		blacklistRepo:  blacklistRepo,
		accessLogRepo:  accessLogRepo,
		publisher:      publisher,
		contextTimeout: timeout,
	}
}

func (s *visitService) PreRegister(ctx context.Context, residentID string, input *domain.PreRegistration) (*domain.VisitRequestWithVisitor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if residentID == "" {
		return nil, fmt.Errorf("resident is required")
	}
	visitorName := strings.TrimSpace(input.VisitorName)
	if visitorName == "" {
		return nil, fmt.Errorf("visitor name is required")
	}
	idNumber := normalizeIDNumber(input.IDNumber)
	if idNumber == "" {
		return nil, fmt.Errorf("visitor id number is required")
	}
	visitorEmail := strings.TrimSpace(strings.ToLower(input.VisitorEmail))
	if visitorEmail != "" && !emailRegexp.MatchString(visitorEmail) {
		return nil, fmt.Errorf("invalid visitor email format")
	}
	purpose := strings.TrimSpace(input.Purpose)
	if purpose == "" {
		return nil, fmt.Errorf("purpose is required")
	}
	visitType := input.VisitType
	if visitType == "" {
		visitType = domain.VisitTypeOther
	}
	if !domain.ValidVisitType(visitType) {
		return nil, fmt.Errorf("unknown visit type %q", input.VisitType)
	}
	if input.WindowStart.IsZero() || input.WindowEnd.IsZero() {
		return nil, fmt.Errorf("visit window is required")
	}
	if !input.WindowEnd.After(input.WindowStart) {
		return nil, fmt.Errorf("visit window end must be after its start")
	}

	visitor, err := s.ensureVisitor(ctx, visitorName, visitorEmail, strings.TrimSpace(input.VisitorPhone), idNumber, strings.TrimSpace(input.VehiclePlate))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	req := domain.NewVisitRequest(visitor.ID, residentID, purpose, visitType, input.WindowStart, input.WindowEnd, now, now)
	if err := s.visitRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create visit request: %w", err)
	}

	s.publish(domain.VisitEvent{Kind: domain.KindVisitRequested, Request: req, Visitor: visitor, At: now})

	return &domain.VisitRequestWithVisitor{Request: req, Visitor: visitor}, nil
}

func (s *visitService) WalkIn(ctx context.Context, securityID string, input *domain.WalkInEntry) (*domain.VisitRequestWithVisitor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if securityID == "" {
		return nil, fmt.Errorf("recording officer is required")
	}
	visitorName := strings.TrimSpace(input.VisitorName)
	if visitorName == "" {
		return nil, fmt.Errorf("visitor name is required")
	}
	idNumber := normalizeIDNumber(input.IDNumber)
	if idNumber == "" {
		return nil, fmt.Errorf("visitor id number is required")
	}
	if input.ResidentID == "" {
		return nil, fmt.Errorf("resident is required")
	}
	if _, err := s.userRepo.GetByID(ctx, input.ResidentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get resident: %w", err)
	}
	visitType := input.VisitType
	if visitType == "" {
		visitType = domain.VisitTypeOther
	}
	if !domain.ValidVisitType(visitType) {
		return nil, fmt.Errorf("unknown visit type %q", input.VisitType)
	}

	blacklisted, err := s.blacklistRepo.IsBlacklisted(ctx, idNumber)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if blacklisted {
		s.publish(domain.VisitEvent{
			Kind:    domain.KindSecurityAlert,
			Visitor: &domain.Visitor{FullName: visitorName, IDNumber: idNumber},
			Reason:  "walk-in entry blocked",
			At:      time.Now(),
		})
		return nil, domain.ErrBlacklistedVisitor
	}

	visitor, err := s.ensureVisitor(ctx, visitorName, strings.TrimSpace(strings.ToLower(input.VisitorEmail)), strings.TrimSpace(input.VisitorPhone), idNumber, strings.TrimSpace(input.VehiclePlate))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	purpose := strings.TrimSpace(input.Purpose)
	if purpose == "" {
		purpose = "walk-in visit"
	}
	req := domain.NewVisitRequest(visitor.ID, input.ResidentID, purpose, visitType, now, now, now, now)
	req.Status = domain.VisitCheckedIn
	req.EnteredAt = &now
	if err := s.visitRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create walk-in request: %w", err)
	}

	entry := domain.NewAccessLogEntry(req.ID, domain.AccessEntry, securityID, now)
	if err := s.accessLogRepo.Append(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateLogEntry) {
			return nil, domain.ErrDuplicateLogEntry
		}
		return nil, fmt.Errorf("append entry log: %w", err)
	}

	s.publish(domain.VisitEvent{Kind: domain.KindVisitorCheckedIn, Request: req, Visitor: visitor, At: now})

	return &domain.VisitRequestWithVisitor{Request: req, Visitor: visitor}, nil
}

func (s *visitService) GetByID(ctx context.Context, actorID string, staff bool, id string) (*domain.VisitRequestWithVisitor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bundle, err := s.visitRepo.GetWithVisitorByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get visit request: %w", err)
	}
	if !staff && bundle.Request.ResidentID != actorID {
		return nil, domain.ErrForbidden
	}
	return bundle, nil
}

func (s *visitService) GetByGatePass(ctx context.Context, gatePass string) (*domain.VisitRequestWithVisitor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	gatePass = strings.ToUpper(strings.TrimSpace(gatePass))
	if gatePass == "" {
		return nil, domain.ErrNotFound
	}
	bundle, err := s.visitRepo.GetWithVisitorByGatePass(ctx, gatePass)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get visit request by gate pass: %w", err)
	}
	return bundle, nil
}

func (s *visitService) ListByResident(ctx context.Context, residentID string, f domain.VisitFilter, p domain.PaginationParams) ([]*domain.VisitRequestWithVisitor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, err := s.visitRepo.ListByResidentID(ctx, residentID, f, p)
	if err != nil {
		return nil, fmt.Errorf("list visit requests: %w", err)
	}
	if items == nil {
		items = []*domain.VisitRequestWithVisitor{}
	}
	return items, nil
}

func (s *visitService) ListAll(ctx context.Context, f domain.VisitFilter, p domain.PaginationParams) ([]*domain.VisitRequestWithVisitor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, err := s.visitRepo.ListAll(ctx, f, p)
	if err != nil {
		return nil, fmt.Errorf("list visit requests: %w", err)
	}
	if items == nil {
		items = []*domain.VisitRequestWithVisitor{}
	}
	return items, nil
}

func (s *visitService) Approve(ctx context.Context, residentID, id string) (*domain.VisitRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bundle, err := s.visitRepo.GetWithVisitorByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get visit request: %w", err)
	}
	req, visitor := bundle.Request, bundle.Visitor
	if req.ResidentID != residentID {
		return nil, domain.ErrForbidden
	}
	if req.Status != domain.VisitPending {
		return nil, domain.ErrAlreadyDecided
	}

	blacklisted, err := s.blacklistRepo.IsBlacklisted(ctx, visitor.IDNumber)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if blacklisted {
		s.publish(domain.VisitEvent{Kind: domain.KindSecurityAlert, Request: req, Visitor: visitor, Reason: "visit approval blocked", At: time.Now()})
		return nil, domain.ErrBlacklistedVisitor
	}

	gatePass, err := generateGatePass()
	if err != nil {
		return nil, fmt.Errorf("generate gate pass: %w", err)
	}
	now := time.Now()
	updated, err := s.visitRepo.MarkApproved(ctx, id, gatePass, now)
	if err != nil {
		return nil, fmt.Errorf("approve visit request: %w", err)
	}
	if !updated {
		return nil, s.classifyDecisionConflict(ctx, id)
	}

	// Re-check after commit: a blacklist entry added between the check above
	// and the update must not leave an approved request behind.
	blacklisted, err = s.blacklistRepo.IsBlacklisted(ctx, visitor.IDNumber)
	if err == nil && blacklisted {
		revoked, revokeErr := s.visitRepo.MarkDenied(ctx, id, domain.VisitApproved, domain.DenialRetroactiveBlacklist, time.Now())
		if revokeErr == nil && revoked {
			s.publish(domain.VisitEvent{Kind: domain.KindVisitDenied, Request: req, Visitor: visitor, Reason: domain.DenialRetroactiveBlacklist, At: time.Now()})
		}
		s.publish(domain.VisitEvent{Kind: domain.KindSecurityAlert, Request: req, Visitor: visitor, Reason: "visit approval blocked", At: time.Now()})
		return nil, domain.ErrBlacklistedVisitor
	}

	req.Status = domain.VisitApproved
	req.GatePass = gatePass
	req.DecidedAt = &now
	req.UpdatedAt = now

	s.publish(domain.VisitEvent{Kind: domain.KindVisitApproved, Request: req, Visitor: visitor, At: now})

	return req, nil
}

func (s *visitService) Deny(ctx context.Context, residentID, id, reason string) (*domain.VisitRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bundle, err := s.visitRepo.GetWithVisitorByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get visit request: %w", err)
	}
	req, visitor := bundle.Request, bundle.Visitor
	if req.ResidentID != residentID {
		return nil, domain.ErrForbidden
	}
	if req.Status != domain.VisitPending {
		return nil, domain.ErrAlreadyDecided
	}

	reason = strings.TrimSpace(reason)
	now := time.Now()
	updated, err := s.visitRepo.MarkDenied(ctx, id, domain.VisitPending, reason, now)
	if err != nil {
		return nil, fmt.Errorf("deny visit request: %w", err)
	}
	if !updated {
		return nil, s.classifyDecisionConflict(ctx, id)
	}

	req.Status = domain.VisitDenied
	req.DenialReason = reason
	req.DecidedAt = &now
	req.UpdatedAt = now

	s.publish(domain.VisitEvent{Kind: domain.KindVisitDenied, Request: req, Visitor: visitor, Reason: reason, At: now})

	return req, nil
}

func (s *visitService) Cancel(ctx context.Context, residentID, id string) (*domain.VisitRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bundle, err := s.visitRepo.GetWithVisitorByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get visit request: %w", err)
	}
	req, visitor := bundle.Request, bundle.Visitor
	if req.ResidentID != residentID {
		return nil, domain.ErrForbidden
	}
	if req.Status != domain.VisitPending && req.Status != domain.VisitApproved {
		return nil, domain.ErrInvalidTransition
	}

	updated, err := s.visitRepo.MarkCancelled(ctx, id, req.Status)
	if err != nil {
		return nil, fmt.Errorf("cancel visit request: %w", err)
	}
	if !updated {
		return nil, s.classifyMovementConflict(ctx, id)
	}

	now := time.Now()
	req.Status = domain.VisitCancelled
	req.UpdatedAt = now

	s.publish(domain.VisitEvent{Kind: domain.KindVisitCancelled, Request: req, Visitor: visitor, At: now})

	return req, nil
}

func (s *visitService) CheckIn(ctx context.Context, securityID, id string) (*domain.VisitRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bundle, err := s.visitRepo.GetWithVisitorByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get visit request: %w", err)
	}
	req, visitor := bundle.Request, bundle.Visitor
	if req.Status != domain.VisitApproved {
		return nil, domain.ErrInvalidTransition
	}

	// The gate re-checks the blacklist on every entry. A visitor blacklisted
	// after approval is turned away and the stale approval revoked.
	blacklisted, err := s.blacklistRepo.IsBlacklisted(ctx, visitor.IDNumber)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if blacklisted {
		now := time.Now()
		revoked, revokeErr := s.visitRepo.MarkDenied(ctx, id, domain.VisitApproved, domain.DenialRetroactiveBlacklist, now)
		if revokeErr != nil {
			return nil, fmt.Errorf("revoke blacklisted approval: %w", revokeErr)
		}
		if revoked {
			s.publish(domain.VisitEvent{Kind: domain.KindVisitDenied, Request: req, Visitor: visitor, Reason: domain.DenialRetroactiveBlacklist, At: now})
		}
		s.publish(domain.VisitEvent{Kind: domain.KindSecurityAlert, Request: req, Visitor: visitor, Reason: "gate check-in blocked", At: now})
		return nil, domain.ErrBlacklistedVisitor
	}

	now := time.Now()
	updated, err := s.visitRepo.MarkCheckedIn(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("check in visit request: %w", err)
	}
	if !updated {
		return nil, s.classifyMovementConflict(ctx, id)
	}

	entry := domain.NewAccessLogEntry(id, domain.AccessEntry, securityID, now)
	if err := s.accessLogRepo.Append(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateLogEntry) {
			return nil, domain.ErrDuplicateLogEntry
		}
		return nil, fmt.Errorf("append entry log: %w", err)
	}

	req.Status = domain.VisitCheckedIn
	req.EnteredAt = &now
	req.UpdatedAt = now

	s.publish(domain.VisitEvent{Kind: domain.KindVisitorCheckedIn, Request: req, Visitor: visitor, At: now})

	return req, nil
}

func (s *visitService) CheckOut(ctx context.Context, securityID, id string) (*domain.VisitRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bundle, err := s.visitRepo.GetWithVisitorByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get visit request: %w", err)
	}
	req, visitor := bundle.Request, bundle.Visitor
	if req.Status != domain.VisitCheckedIn {
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now()
	updated, err := s.visitRepo.MarkCheckedOut(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("check out visit request: %w", err)
	}
	if !updated {
		return nil, s.classifyMovementConflict(ctx, id)
	}

	exit := domain.NewAccessLogEntry(id, domain.AccessExit, securityID, now)
	if err := s.accessLogRepo.Append(ctx, exit); err != nil {
		if errors.Is(err, domain.ErrDuplicateLogEntry) {
			return nil, domain.ErrDuplicateLogEntry
		}
		return nil, fmt.Errorf("append exit log: %w", err)
	}

	req.Status = domain.VisitCheckedOut
	req.LeftAt = &now
	req.UpdatedAt = now

	s.publish(domain.VisitEvent{Kind: domain.KindVisitorCheckedOut, Request: req, Visitor: visitor, At: now})

	return req, nil
}

func (s *visitService) ExpireOverdue(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	expired, err := s.visitRepo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("expire overdue requests: %w", err)
	}
	for _, req := range expired {
		visitor, err := s.visitorRepo.GetByID(ctx, req.VisitorID)
		if err != nil {
			visitor = nil
		}
		s.publish(domain.VisitEvent{Kind: domain.KindVisitExpired, Request: req, Visitor: visitor, At: time.Now()})
	}
	return len(expired), nil
}

// ensureVisitor finds the visitor by ID number, refreshing stored contact
// details from the new input, or creates the identity if it is unknown.
func (s *visitService) ensureVisitor(ctx context.Context, fullName, email, phone, idNumber, plate string) (*domain.Visitor, error) {
	visitor, err := s.visitorRepo.GetByIDNumber(ctx, idNumber)
	if err == nil {
		changed := false
		if fullName != "" && fullName != visitor.FullName {
			visitor.FullName = fullName
			changed = true
		}
		if email != "" && email != visitor.Email {
			visitor.Email = email
			changed = true
		}
		if phone != "" && phone != visitor.Phone {
			visitor.Phone = phone
			changed = true
		}
		if plate != "" && plate != visitor.VehiclePlate {
			visitor.VehiclePlate = plate
			changed = true
		}
		if changed {
			visitor.UpdatedAt = time.Now()
			if err := s.visitorRepo.Update(ctx, visitor); err != nil {
				return nil, fmt.Errorf("update visitor: %w", err)
			}
		}
		return visitor, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get visitor: %w", err)
	}

	now := time.Now()
	visitor = domain.NewVisitor(fullName, email, phone, idNumber, plate, now, now)
	if err := s.visitorRepo.Create(ctx, visitor); err != nil {
		if errors.Is(err, domain.ErrDuplicateIDNumber) {
			// Lost a race with a concurrent registration of the same identity.
			return s.visitorRepo.GetByIDNumber(ctx, idNumber)
		}
		return nil, fmt.Errorf("create visitor: %w", err)
	}
	return visitor, nil
}

// classifyDecisionConflict reports why a guarded decision update changed no rows.
func (s *visitService) classifyDecisionConflict(ctx context.Context, id string) error {
	if _, err := s.visitRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get visit request: %w", err)
	}
	return domain.ErrAlreadyDecided
}

// classifyMovementConflict reports why a guarded movement update changed no rows.
func (s *visitService) classifyMovementConflict(ctx context.Context, id string) error {
	if _, err := s.visitRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get visit request: %w", err)
	}
	return domain.ErrInvalidTransition
}

func (s *visitService) publish(event domain.VisitEvent) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

const gatePassLength = 10

var gatePassAlphabet = []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")

func generateGatePass() (string, error) {
	b := make([]rune, gatePassLength)
	max := big.NewInt(int64(len(gatePassAlphabet)))
	for i := 0; i < gatePassLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = gatePassAlphabet[n.Int64()]
	}
	return string(b), nil
}
