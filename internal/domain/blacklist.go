package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for blacklist operations.
var (
	ErrBlacklistedVisitor = errors.New("visitor is blacklisted")
	ErrAlreadyBlacklisted = errors.New("id number already blacklisted")
)

// BlacklistEntry bars a visitor identity from approval and check-in.
// swagger:model BlacklistEntry
type BlacklistEntry struct {
	ID        string    `json:"id"`
	IDNumber  string    `json:"id_number"`
	Reason    string    `json:"reason"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBlacklistEntry returns a new BlacklistEntry. ID is typically set by the repository on create.
func NewBlacklistEntry(idNumber, reason, addedBy string, createdAt time.Time) *BlacklistEntry {
	return &BlacklistEntry{
		IDNumber:  idNumber,
		Reason:    reason,
		AddedBy:   addedBy,
		CreatedAt: createdAt,
	}
}

// BlacklistRepository defines storage operations for the blacklist.
type BlacklistRepository interface {
	Create(ctx context.Context, entry *BlacklistEntry) error
	Remove(ctx context.Context, idNumber string) error
	IsBlacklisted(ctx context.Context, idNumber string) (bool, error)
	List(ctx context.Context, p PaginationParams) ([]*BlacklistEntry, error)
	Count(ctx context.Context) (int, error)
}

// BlacklistService manages the blacklist. Adding an entry retroactively
// denies approved, not yet checked-in requests for that identity.
type BlacklistService interface {
	Add(ctx context.Context, addedBy, idNumber, reason string) (*BlacklistEntry, error)
	Remove(ctx context.Context, idNumber string) error
	IsBlacklisted(ctx context.Context, idNumber string) (bool, error)
	// List returns one page of entries plus the total count.
	List(ctx context.Context, p PaginationParams) ([]*BlacklistEntry, int, error)
}
