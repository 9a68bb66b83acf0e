package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"visitorgate/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type userService struct {
	userRepo       domain.UserRepository
	roleRepo       domain.RoleRepository
	hasher         domain.PasswordHasher
	notifications  domain.NotificationService
	emailService   domain.EmailService
	contextTimeout time.Duration
}

// NewUserService creates a UserService with the given repositories and ports.
// notifications and emailService may be nil; account approval then skips the
// corresponding notice.
func NewUserService(userRepo domain.UserRepository,
	roleRepo domain.RoleRepository,
	hasher domain.PasswordHasher,
	notifications domain.NotificationService,
	emailService domain.EmailService,
	timeout time.Duration,
) domain.UserService {
	return &userService{
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		hasher:         hasher,
		notifications:  notifications,
		emailService:   emailService,
		contextTimeout: timeout,
	}
}

func (s *userService) Register(ctx context.Context, input *domain.Registration) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email := strings.TrimSpace(strings.ToLower(input.Email))
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("invalid email format")
	}
	if len(input.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("full name is required")
	}

	user, err := s.createAccount(ctx, email, fullName, strings.TrimSpace(input.Phone), input.Password, domain.RoleResident, false)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) CreateStaff(ctx context.Context, input *domain.StaffInput) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email := strings.TrimSpace(strings.ToLower(input.Email))
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("invalid email format")
	}
	if len(input.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("full name is required")
	}
	roleCode := strings.TrimSpace(strings.ToLower(input.Role))
	if roleCode != domain.RoleAdmin && roleCode != domain.RoleSecurity && roleCode != domain.RoleResident {
		return nil, fmt.Errorf("unknown role %q", input.Role)
	}

	user, err := s.createAccount(ctx, email, fullName, strings.TrimSpace(input.Phone), input.Password, roleCode, true)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// createAccount hashes the password, stores the user, and assigns its role.
func (s *userService) createAccount(ctx context.Context, email, fullName, phone, password, roleCode string, approved bool) (*domain.User, error) {
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := domain.NewUser(email, fullName, phone, now, now)
	user.PasswordHash = hash
	user.Salt = salt
	user.Approved = approved

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	roleRecord, err := s.roleRepo.GetByCode(ctx, roleCode)
	if err != nil {
		return nil, fmt.Errorf("get role %q: %w", roleCode, err)
	}
	if err := s.userRepo.AssignRole(ctx, user.ID, roleRecord.ID); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	user.Roles = []string{roleCode}

	return user, nil
}

func (s *userService) ApproveAccount(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.userRepo.Approve(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("approve account: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	roles, err := s.roleRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	user.Roles = roleCodes(roles)

	// Approval notices are best effort; the account is already active.
	if s.notifications != nil {
		if err := s.notifications.Notify(ctx, user.ID, domain.KindAccountApproved,
			"Account approved", "Your account has been approved. You can now manage visits."); err != nil {
			log.Printf("[USER] account approved notification for %s failed: %v", user.ID, err)
		}
	}
	if s.emailService != nil {
		data := &domain.AccountApprovedEmailData{Email: user.Email, Name: user.FullName}
		if err := s.emailService.SendAccountApproved(ctx, data); err != nil {
			log.Printf("[USER] account approved email to %s failed: %v", user.Email, err)
		}
	}

	return user, nil
}

func (s *userService) ListPending(ctx context.Context, p domain.PaginationParams) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	users, err := s.userRepo.ListPending(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	roles, err := s.roleRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	user.Roles = roleCodes(roles)
	return user, nil
}

func roleCodes(roles []*domain.Role) []string {
	codes := make([]string, len(roles))
	for i, r := range roles {
		codes[i] = r.Code
	}
	return codes
}
