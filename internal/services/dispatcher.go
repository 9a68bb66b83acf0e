package services

import (
	"context"
	"fmt"
	"log/slog"

	"visitorgate/internal/domain"
)

const defaultInboxSize = 64

// Dispatcher consumes visit lifecycle events from a channel and fans them out
// as in-app notifications and emails. Delivery is best effort: failures are
// logged and never retried, and a full inbox drops the event rather than
// block the caller.
type Dispatcher struct {
	userRepo      domain.UserRepository
	notifications domain.NotificationService
	emailService  domain.EmailService
	logger        *slog.Logger
	inbox         chan domain.VisitEvent
}

// NewDispatcher creates a Dispatcher with an inbox of the given size.
// size <= 0 falls back to a default.
func NewDispatcher(userRepo domain.UserRepository,
	notifications domain.NotificationService,
	emailService domain.EmailService,
	logger *slog.Logger,
	size int,
) *Dispatcher {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Dispatcher{
		userRepo:      userRepo,
		notifications: notifications,
		emailService:  emailService,
		logger:        logger,
		inbox:         make(chan domain.VisitEvent, size),
	}
}

// Publish queues an event for delivery without blocking. When the inbox is
// full the event is dropped with a warning; the state change it describes is
// already durable.
func (d *Dispatcher) Publish(event domain.VisitEvent) {
	select {
	case d.inbox <- event:
	default:
		d.logger.Warn("notification inbox full, dropping event", "kind", event.Kind)
	}
}

// Run consumes the inbox until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-d.inbox:
			d.dispatch(ctx, event)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, e domain.VisitEvent) {
	switch e.Kind {
	case domain.KindVisitRequested:
		resident, ok := d.resident(ctx, e)
		if !ok {
			return
		}
		d.notifyUser(ctx, resident.ID, e.Kind, "New visit request",
			fmt.Sprintf("%s requested a visit. Review it to approve or deny.", visitorName(e.Visitor)))
		if resident.Email != "" && e.Request != nil {
			err := d.emailService.SendVisitRequested(ctx, &domain.VisitRequestedEmailData{
				Email:       resident.Email,
				Resident:    resident.FullName,
				Visitor:     visitorName(e.Visitor),
				Purpose:     e.Request.Purpose,
				WindowStart: e.Request.WindowStart,
				WindowEnd:   e.Request.WindowEnd,
			})
			d.logEmailResult(e.Kind, resident.Email, err)
		}

	case domain.KindVisitApproved:
		if e.Visitor == nil || e.Visitor.Email == "" || e.Request == nil {
			return
		}
		err := d.emailService.SendVisitApproved(ctx, &domain.VisitApprovedEmailData{
			Email:       e.Visitor.Email,
			Visitor:     e.Visitor.FullName,
			GatePass:    e.Request.GatePass,
			WindowStart: e.Request.WindowStart,
			WindowEnd:   e.Request.WindowEnd,
		})
		d.logEmailResult(e.Kind, e.Visitor.Email, err)

	case domain.KindVisitDenied:
		if e.Reason == domain.DenialRetroactiveBlacklist {
			if resident, ok := d.resident(ctx, e); ok {
				d.notifyUser(ctx, resident.ID, e.Kind, "Visit approval revoked",
					fmt.Sprintf("The approved visit by %s was revoked because the visitor is blacklisted.", visitorName(e.Visitor)))
			}
		}
		if e.Visitor != nil && e.Visitor.Email != "" {
			err := d.emailService.SendVisitDenied(ctx, &domain.VisitDeniedEmailData{
				Email:   e.Visitor.Email,
				Visitor: e.Visitor.FullName,
				Reason:  e.Reason,
			})
			d.logEmailResult(e.Kind, e.Visitor.Email, err)
		}

	case domain.KindVisitCancelled:
		if e.Visitor == nil || e.Visitor.Email == "" {
			return
		}
		err := d.emailService.SendVisitDenied(ctx, &domain.VisitDeniedEmailData{
			Email:   e.Visitor.Email,
			Visitor: e.Visitor.FullName,
			Reason:  "cancelled by the resident",
		})
		d.logEmailResult(e.Kind, e.Visitor.Email, err)

	case domain.KindVisitExpired:
		resident, ok := d.resident(ctx, e)
		if !ok {
			return
		}
		d.notifyUser(ctx, resident.ID, e.Kind, "Visit request expired",
			fmt.Sprintf("The visit request by %s expired without a decision.", visitorName(e.Visitor)))
		if resident.Email != "" {
			err := d.emailService.SendVisitExpired(ctx, &domain.VisitExpiredEmailData{
				Email:    resident.Email,
				Resident: resident.FullName,
				Visitor:  visitorName(e.Visitor),
			})
			d.logEmailResult(e.Kind, resident.Email, err)
		}

	case domain.KindVisitorCheckedIn:
		resident, ok := d.resident(ctx, e)
		if !ok {
			return
		}
		d.notifyUser(ctx, resident.ID, e.Kind, "Visitor arrived",
			fmt.Sprintf("%s checked in at the gate.", visitorName(e.Visitor)))
		if resident.Email != "" && e.Request != nil && e.Request.EnteredAt != nil {
			err := d.emailService.SendVisitorCheckedIn(ctx, &domain.VisitorCheckedInEmailData{
				Email:     resident.Email,
				Resident:  resident.FullName,
				Visitor:   visitorName(e.Visitor),
				EnteredAt: *e.Request.EnteredAt,
			})
			d.logEmailResult(e.Kind, resident.Email, err)
		}

	case domain.KindVisitorCheckedOut:
		resident, ok := d.resident(ctx, e)
		if !ok {
			return
		}
		d.notifyUser(ctx, resident.ID, e.Kind, "Visitor left",
			fmt.Sprintf("%s checked out at the gate.", visitorName(e.Visitor)))
		if resident.Email != "" && e.Request != nil && e.Request.LeftAt != nil {
			err := d.emailService.SendVisitorCheckedOut(ctx, &domain.VisitorCheckedOutEmailData{
				Email:    resident.Email,
				Resident: resident.FullName,
				Visitor:  visitorName(e.Visitor),
				LeftAt:   *e.Request.LeftAt,
			})
			d.logEmailResult(e.Kind, resident.Email, err)
		}

	case domain.KindSecurityAlert:
		officers, err := d.alertRecipients(ctx)
		if err != nil {
			d.logger.Error("list staff for alert", "error", err)
			return
		}
		idNumber := ""
		if e.Visitor != nil {
			idNumber = e.Visitor.IDNumber
		}
		for _, officer := range officers {
			d.notifyUser(ctx, officer.ID, e.Kind, "Blacklisted visitor blocked",
				fmt.Sprintf("%s (%s): %s.", visitorName(e.Visitor), idNumber, e.Reason))
			if officer.Email == "" {
				continue
			}
			err := d.emailService.SendSecurityAlert(ctx, &domain.SecurityAlertEmailData{
				Email:    officer.Email,
				Visitor:  visitorName(e.Visitor),
				IDNumber: idNumber,
				Reason:   e.Reason,
			})
			d.logEmailResult(e.Kind, officer.Email, err)
		}

	default:
		d.logger.Debug("no delivery rule for event", "kind", e.Kind)
	}
}

// alertRecipients gathers every security and admin account, each once.
func (d *Dispatcher) alertRecipients(ctx context.Context) ([]*domain.User, error) {
	recipients := make([]*domain.User, 0)
	seen := make(map[string]bool)
	for _, role := range []string{domain.RoleSecurity, domain.RoleAdmin} {
		users, err := d.userRepo.ListByRole(ctx, role)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			recipients = append(recipients, u)
		}
	}
	return recipients, nil
}

// resident resolves the resident behind the event's request.
func (d *Dispatcher) resident(ctx context.Context, e domain.VisitEvent) (*domain.User, bool) {
	if e.Request == nil || e.Request.ResidentID == "" {
		return nil, false
	}
	resident, err := d.userRepo.GetByID(ctx, e.Request.ResidentID)
	if err != nil {
		d.logger.Error("resolve resident for event", "kind", e.Kind, "resident_id", e.Request.ResidentID, "error", err)
		return nil, false
	}
	return resident, true
}

func (d *Dispatcher) notifyUser(ctx context.Context, userID string, kind domain.NotificationKind, title, body string) {
	if err := d.notifications.Notify(ctx, userID, kind, title, body); err != nil {
		d.logger.Error("store notification", "kind", kind, "user_id", userID, "error", err)
	}
}

func (d *Dispatcher) logEmailResult(kind domain.NotificationKind, to string, err error) {
	if err != nil {
		d.logger.Error("send event email", "kind", kind, "to", to, "error", err)
	}
}

func visitorName(v *domain.Visitor) string {
	if v == nil || v.FullName == "" {
		return "A visitor"
	}
	return v.FullName
}

var _ domain.VisitEventPublisher = (*Dispatcher)(nil)
