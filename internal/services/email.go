package services

import (
	"context"
	"fmt"
	"log"

	"visitorgate/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendVisitRequested tells a resident that a visit request is waiting for their decision.
func (s *emailService) SendVisitRequested(ctx context.Context, data *domain.VisitRequestedEmailData) error {
	if data == nil {
		return fmt.Errorf("visit requested email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("visit_requested", data)
	if err != nil {
		return fmt.Errorf("failed to render visit_requested template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send visit requested email: %w", err)
	}
	log.Printf("[EMAIL] Visit requested email sent to %s", data.Email)
	return nil
}

// SendVisitApproved sends the visitor their gate pass for an approved visit.
func (s *emailService) SendVisitApproved(ctx context.Context, data *domain.VisitApprovedEmailData) error {
	if data == nil {
		return fmt.Errorf("visit approved email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("visit_approved", data)
	if err != nil {
		return fmt.Errorf("failed to render visit_approved template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send visit approved email: %w", err)
	}
	log.Printf("[EMAIL] Visit approved email sent to %s", data.Email)
	return nil
}

// SendVisitDenied tells the visitor their visit request was denied.
func (s *emailService) SendVisitDenied(ctx context.Context, data *domain.VisitDeniedEmailData) error {
	if data == nil {
		return fmt.Errorf("visit denied email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("visit_denied", data)
	if err != nil {
		return fmt.Errorf("failed to render visit_denied template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send visit denied email: %w", err)
	}
	log.Printf("[EMAIL] Visit denied email sent to %s", data.Email)
	return nil
}

// SendVisitorCheckedIn tells the resident their visitor arrived at the gate.
func (s *emailService) SendVisitorCheckedIn(ctx context.Context, data *domain.VisitorCheckedInEmailData) error {
	if data == nil {
		return fmt.Errorf("visitor checked in email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("visitor_checked_in", data)
	if err != nil {
		return fmt.Errorf("failed to render visitor_checked_in template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send visitor checked in email: %w", err)
	}
	log.Printf("[EMAIL] Visitor checked in email sent to %s", data.Email)
	return nil
}

// SendVisitorCheckedOut tells the resident their visitor left the premises.
func (s *emailService) SendVisitorCheckedOut(ctx context.Context, data *domain.VisitorCheckedOutEmailData) error {
	if data == nil {
		return fmt.Errorf("visitor checked out email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("visitor_checked_out", data)
	if err != nil {
		return fmt.Errorf("failed to render visitor_checked_out template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send visitor checked out email: %w", err)
	}
	log.Printf("[EMAIL] Visitor checked out email sent to %s", data.Email)
	return nil
}

// SendVisitExpired tells the resident a pending request lapsed without a decision.
func (s *emailService) SendVisitExpired(ctx context.Context, data *domain.VisitExpiredEmailData) error {
	if data == nil {
		return fmt.Errorf("visit expired email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("visit_expired", data)
	if err != nil {
		return fmt.Errorf("failed to render visit_expired template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send visit expired email: %w", err)
	}
	log.Printf("[EMAIL] Visit expired email sent to %s", data.Email)
	return nil
}

// SendSecurityAlert notifies security staff about a blocked blacklisted visitor.
func (s *emailService) SendSecurityAlert(ctx context.Context, data *domain.SecurityAlertEmailData) error {
	if data == nil {
		return fmt.Errorf("security alert email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("security_alert", data)
	if err != nil {
		return fmt.Errorf("failed to render security_alert template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send security alert email: %w", err)
	}
	log.Printf("[EMAIL] Security alert email sent to %s", data.Email)
	return nil
}

// SendAccountApproved tells a resident their account was activated by an admin.
func (s *emailService) SendAccountApproved(ctx context.Context, data *domain.AccountApprovedEmailData) error {
	if data == nil {
		return fmt.Errorf("account approved email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("account_approved", data)
	if err != nil {
		return fmt.Errorf("failed to render account_approved template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send account approved email: %w", err)
	}
	log.Printf("[EMAIL] Account approved email sent to %s", data.Email)
	return nil
}
