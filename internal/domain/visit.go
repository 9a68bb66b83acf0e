package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for visit request transitions.
var (
	ErrAlreadyDecided    = errors.New("visit request already decided")
	ErrInvalidTransition = errors.New("invalid visit status transition")
)

// VisitStatus is the lifecycle state of a visit request.
type VisitStatus string

// Visit request lifecycle states. Pending is the initial state; Denied,
// CheckedOut, Expired, and Cancelled are terminal.
const (
	VisitPending    VisitStatus = "pending"
	VisitApproved   VisitStatus = "approved"
	VisitDenied     VisitStatus = "denied"
	VisitCheckedIn  VisitStatus = "checked_in"
	VisitCheckedOut VisitStatus = "checked_out"
	VisitExpired    VisitStatus = "expired"
	VisitCancelled  VisitStatus = "cancelled"
)

// ValidVisitStatus reports whether s is a known lifecycle state.
func ValidVisitStatus(s VisitStatus) bool {
	switch s {
	case VisitPending, VisitApproved, VisitDenied, VisitCheckedIn, VisitCheckedOut, VisitExpired, VisitCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s VisitStatus) Terminal() bool {
	switch s {
	case VisitDenied, VisitCheckedOut, VisitExpired, VisitCancelled:
		return true
	}
	return false
}

// VisitType categorizes the purpose of a visit.
type VisitType string

// Known visit types.
const (
	VisitTypePersonal VisitType = "personal"
	VisitTypeDelivery VisitType = "delivery"
	VisitTypeService  VisitType = "service"
	VisitTypeBusiness VisitType = "business"
	VisitTypeOther    VisitType = "other"
)

// ValidVisitType reports whether t is a known visit type.
func ValidVisitType(t VisitType) bool {
	switch t {
	case VisitTypePersonal, VisitTypeDelivery, VisitTypeService, VisitTypeBusiness, VisitTypeOther:
		return true
	}
	return false
}

// DenialRetroactiveBlacklist is the denial reason recorded when an approved
// request is revoked because its visitor was blacklisted after approval.
const DenialRetroactiveBlacklist = "retroactive_blacklist"

// VisitRequest represents one intended visit by a visitor to a resident.
// swagger:model VisitRequest
type VisitRequest struct {
	ID           string      `json:"id"`
	VisitorID    string      `json:"visitor_id"`
	ResidentID   string      `json:"resident_id"`
	Purpose      string      `json:"purpose"`
	VisitType    VisitType   `json:"visit_type"`
	WindowStart  time.Time   `json:"window_start"`
	WindowEnd    time.Time   `json:"window_end"`
	Status       VisitStatus `json:"status"`
	DenialReason string      `json:"denial_reason,omitempty"`
	GatePass     string      `json:"gate_pass,omitempty"`
	DecidedAt    *time.Time  `json:"decided_at,omitempty"`
	EnteredAt    *time.Time  `json:"entered_at,omitempty"`
	LeftAt       *time.Time  `json:"left_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewVisitRequest returns a new pending VisitRequest. ID is typically set by the repository on create.
func NewVisitRequest(visitorID, residentID, purpose string, visitType VisitType, windowStart, windowEnd time.Time, createdAt, updatedAt time.Time) *VisitRequest {
	return &VisitRequest{
		VisitorID:   visitorID,
		ResidentID:  residentID,
		Purpose:     purpose,
		VisitType:   visitType,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Status:      VisitPending,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// VisitRequestWithVisitor bundles a visit request with its visitor identity.
type VisitRequestWithVisitor struct {
	Request *VisitRequest `json:"request"`
	Visitor *Visitor      `json:"visitor"`
}

// VisitFilter narrows visit request listings.
type VisitFilter struct {
	Status VisitStatus
}

// VisitRequestRepository defines storage operations for visit requests.
// All MarkX methods are compare-and-set updates guarded by the expected
// current status; they return updated=false when zero rows changed, which
// the caller classifies by re-reading the row.
type VisitRequestRepository interface {
	Create(ctx context.Context, req *VisitRequest) error
	GetByID(ctx context.Context, id string) (*VisitRequest, error)
	GetWithVisitorByID(ctx context.Context, id string) (*VisitRequestWithVisitor, error)
	GetWithVisitorByGatePass(ctx context.Context, gatePass string) (*VisitRequestWithVisitor, error)
	ListByResidentID(ctx context.Context, residentID string, f VisitFilter, p PaginationParams) ([]*VisitRequestWithVisitor, error)
	ListAll(ctx context.Context, f VisitFilter, p PaginationParams) ([]*VisitRequestWithVisitor, error)
	// ListApprovedByIDNumber returns approved, not yet checked-in requests whose visitor has the given ID number.
	ListApprovedByIDNumber(ctx context.Context, idNumber string) ([]*VisitRequest, error)
	MarkApproved(ctx context.Context, id, gatePass string, decidedAt time.Time) (updated bool, err error)
	MarkDenied(ctx context.Context, id string, from VisitStatus, reason string, decidedAt time.Time) (updated bool, err error)
	MarkCancelled(ctx context.Context, id string, from VisitStatus) (updated bool, err error)
	MarkCheckedIn(ctx context.Context, id string, enteredAt time.Time) (updated bool, err error)
	MarkCheckedOut(ctx context.Context, id string, leftAt time.Time) (updated bool, err error)
	// ExpireOverdue moves pending requests whose window ended before cutoff to
	// expired and returns the affected rows.
	ExpireOverdue(ctx context.Context, cutoff time.Time) ([]*VisitRequest, error)
	CountByStatus(ctx context.Context) (map[VisitStatus]int, error)
}

// PreRegistration holds the input for a resident pre-registering a visitor.
type PreRegistration struct {
	VisitorName  string
	VisitorEmail string
	VisitorPhone string
	IDNumber     string
	VehiclePlate string
	Purpose      string
	VisitType    VisitType
	WindowStart  time.Time
	WindowEnd    time.Time
}

// WalkInEntry holds the input for security recording an unannounced visitor.
type WalkInEntry struct {
	VisitorName  string
	VisitorEmail string
	VisitorPhone string
	IDNumber     string
	VehiclePlate string
	ResidentID   string
	Purpose      string
	VisitType    VisitType
}

// VisitService governs the visit request lifecycle.
type VisitService interface {
	// PreRegister creates a pending request, creating or reusing the visitor by ID number.
	PreRegister(ctx context.Context, residentID string, input *PreRegistration) (*VisitRequestWithVisitor, error)
	// WalkIn records an unannounced visitor as checked in with an entry log row.
	WalkIn(ctx context.Context, securityID string, input *WalkInEntry) (*VisitRequestWithVisitor, error)
	GetByID(ctx context.Context, actorID string, staff bool, id string) (*VisitRequestWithVisitor, error)
	GetByGatePass(ctx context.Context, gatePass string) (*VisitRequestWithVisitor, error)
	ListByResident(ctx context.Context, residentID string, f VisitFilter, p PaginationParams) ([]*VisitRequestWithVisitor, error)
	ListAll(ctx context.Context, f VisitFilter, p PaginationParams) ([]*VisitRequestWithVisitor, error)
	// Approve moves a pending request to approved and issues its gate pass.
	// The blacklist is consulted at decision time; a match fails with
	// ErrBlacklistedVisitor and leaves the request pending.
	Approve(ctx context.Context, residentID, id string) (*VisitRequest, error)
	Deny(ctx context.Context, residentID, id, reason string) (*VisitRequest, error)
	Cancel(ctx context.Context, residentID, id string) (*VisitRequest, error)
	// CheckIn moves an approved request to checked in and appends an entry
	// log row. The blacklist is re-checked; a match denies the request and
	// fails with ErrBlacklistedVisitor.
	CheckIn(ctx context.Context, securityID, id string) (*VisitRequest, error)
	// CheckOut moves a checked-in request to checked out and appends an exit log row.
	CheckOut(ctx context.Context, securityID, id string) (*VisitRequest, error)
	// ExpireOverdue retires pending requests whose window has passed. Returns the number expired.
	ExpireOverdue(ctx context.Context) (int, error)
}

// VisitEvent describes a visit lifecycle occurrence for notification fan-out.
type VisitEvent struct {
	Kind    NotificationKind
	Request *VisitRequest
	Visitor *Visitor
	Reason  string
	At      time.Time
}

// VisitEventPublisher accepts lifecycle events after their state change has
// been durably persisted. Publishing must not block the request path.
type VisitEventPublisher interface {
	Publish(event VisitEvent)
}
