package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateIDNumber is returned when creating a visitor whose ID number is already on file.
var ErrDuplicateIDNumber = errors.New("id number already registered")

// Visitor represents a visitor identity, reused across visit requests by ID number.
// swagger:model Visitor
type Visitor struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	IDNumber     string    `json:"id_number"`
	VehiclePlate string    `json:"vehicle_plate,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewVisitor returns a new Visitor with the given fields. ID is typically set by the repository on create.
func NewVisitor(fullName, email, phone, idNumber, vehiclePlate string, createdAt, updatedAt time.Time) *Visitor {
	return &Visitor{
		FullName:     fullName,
		Email:        email,
		Phone:        phone,
		IDNumber:     idNumber,
		VehiclePlate: vehiclePlate,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// VisitorRepository defines the interface for visitor identity storage
type VisitorRepository interface {
	Create(ctx context.Context, visitor *Visitor) error
	GetByID(ctx context.Context, id string) (*Visitor, error)
	GetByIDNumber(ctx context.Context, idNumber string) (*Visitor, error)
	Update(ctx context.Context, visitor *Visitor) error
	List(ctx context.Context, p PaginationParams) ([]*Visitor, error)
	Count(ctx context.Context) (int, error)
}

// VisitorService defines visitor identity lookups for security and admin staff.
type VisitorService interface {
	// List returns one page of visitors plus the total count on file.
	List(ctx context.Context, p PaginationParams) ([]*Visitor, int, error)
	GetByIDNumber(ctx context.Context, idNumber string) (*Visitor, error)
}
