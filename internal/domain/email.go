package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// VisitRequestedEmailData holds data for the new-visit-request email to the resident.
type VisitRequestedEmailData struct {
	Email       string
	Resident    string
	Visitor     string
	Purpose     string
	WindowStart time.Time
	WindowEnd   time.Time
}

// VisitApprovedEmailData holds data for the approval confirmation email to the visitor.
type VisitApprovedEmailData struct {
	Email       string
	Visitor     string
	GatePass    string
	WindowStart time.Time
	WindowEnd   time.Time
}

// VisitDeniedEmailData holds data for the denial email to the visitor.
type VisitDeniedEmailData struct {
	Email   string
	Visitor string
	Reason  string
}

// VisitorCheckedInEmailData holds data for the arrival email to the resident.
type VisitorCheckedInEmailData struct {
	Email     string
	Resident  string
	Visitor   string
	EnteredAt time.Time
}

// VisitorCheckedOutEmailData holds data for the departure email to the resident.
type VisitorCheckedOutEmailData struct {
	Email    string
	Resident string
	Visitor  string
	LeftAt   time.Time
}

// VisitExpiredEmailData holds data for the expiry notice email to the resident.
type VisitExpiredEmailData struct {
	Email    string
	Resident string
	Visitor  string
}

// SecurityAlertEmailData holds data for the blacklist alert email to staff.
type SecurityAlertEmailData struct {
	Email    string
	Visitor  string
	IDNumber string
	Reason   string
}

// AccountApprovedEmailData holds data for the account approval email.
type AccountApprovedEmailData struct {
	Email string
	Name  string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendVisitRequested(ctx context.Context, data *VisitRequestedEmailData) error
	SendVisitApproved(ctx context.Context, data *VisitApprovedEmailData) error
	SendVisitDenied(ctx context.Context, data *VisitDeniedEmailData) error
	SendVisitorCheckedIn(ctx context.Context, data *VisitorCheckedInEmailData) error
	SendVisitorCheckedOut(ctx context.Context, data *VisitorCheckedOutEmailData) error
	SendVisitExpired(ctx context.Context, data *VisitExpiredEmailData) error
	SendSecurityAlert(ctx context.Context, data *SecurityAlertEmailData) error
	SendAccountApproved(ctx context.Context, data *AccountApprovedEmailData) error
}
