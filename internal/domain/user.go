package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user and authentication operations.
var (
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotApproved = errors.New("account not approved")
)

// Role codes known to the system.
const (
	RoleAdmin    = "admin"
	RoleResident = "resident"
	RoleSecurity = "security"
)

// User represents a registered account: a resident, a security officer, or an admin.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Roles        []string  `json:"roles"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(email, fullName, phone string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:     email,
		FullName:  fullName,
		Phone:     phone,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// HasRole reports whether the user carries the given role code.
func (u *User) HasRole(code string) bool {
	for _, r := range u.Roles {
		if r == code {
			return true
		}
	}
	return false
}

// Role represents an application role (e.g. admin, resident, security)
type Role struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// NewRole returns a new Role with the given id and code.
func NewRole(id, code string) *Role {
	return &Role{ID: id, Code: code}
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID and role codes.
type TokenVerifier interface {
	Verify(token string) (userID string, roles []string, err error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Approve(ctx context.Context, id string) error
	ListPending(ctx context.Context, p PaginationParams) ([]*User, error)
	ListByRole(ctx context.Context, roleCode string) ([]*User, error)
	AssignRole(ctx context.Context, userID, roleID string) error
}

// RoleRepository defines the interface for role storage
type RoleRepository interface {
	GetByCode(ctx context.Context, code string) (*Role, error)
	ListByUserID(ctx context.Context, userID string) ([]*Role, error)
}

// Registration holds the input for resident self-registration.
type Registration struct {
	Email    string
	FullName string
	Phone    string
	Password string
}

// StaffInput holds the input for admin-created accounts (security or admin).
type StaffInput struct {
	Email    string
	FullName string
	Phone    string
	Password string
	Role     string
}

// UserService defines account management business logic.
type UserService interface {
	// Register creates an unapproved resident account.
	Register(ctx context.Context, input *Registration) (*User, error)
	// CreateStaff creates an approved account with the given role. Admin only.
	CreateStaff(ctx context.Context, input *StaffInput) (*User, error)
	// ApproveAccount marks a pending account as approved and notifies its owner.
	ApproveAccount(ctx context.Context, id string) (*User, error)
	ListPending(ctx context.Context, p PaginationParams) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// AuthService authenticates credentials and issues an access token.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
}
