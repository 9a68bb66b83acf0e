package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"visitorgate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID       map[string]*domain.User
	byEmail    map[string]*domain.User
	byRole     map[string][]*domain.User
	assigned   map[string][]string
	nextID     int
	getErr     error
	createErr  error
	approveErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:     make(map[string]*domain.User),
		byEmail:  make(map[string]*domain.User),
		byRole:   make(map[string][]*domain.User),
		assigned: make(map[string][]string),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Approve(ctx context.Context, id string) error {
	if f.approveErr != nil {
		return f.approveErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Approved = true
	return nil
}

func (f *fakeUserRepo) ListPending(ctx context.Context, p domain.PaginationParams) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range f.byID {
		if !u.Approved {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, roleCode string) ([]*domain.User, error) {
	return f.byRole[roleCode], nil
}

func (f *fakeUserRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	f.assigned[userID] = append(f.assigned[userID], roleID)
	return nil
}

// fakeRoleRepo implements domain.RoleRepository for tests.
type fakeRoleRepo struct {
	byCode    map[string]*domain.Role
	listByUID map[string][]*domain.Role
	getErr    error
}

func newFakeRoleRepo() *fakeRoleRepo {
	f := &fakeRoleRepo{
		byCode:    make(map[string]*domain.Role),
		listByUID: make(map[string][]*domain.Role),
	}
	f.byCode[domain.RoleAdmin] = domain.NewRole("role-admin", domain.RoleAdmin)
	f.byCode[domain.RoleResident] = domain.NewRole("role-resident", domain.RoleResident)
	f.byCode[domain.RoleSecurity] = domain.NewRole("role-security", domain.RoleSecurity)
	return f
}

func (f *fakeRoleRepo) GetByCode(ctx context.Context, code string) (*domain.Role, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRoleRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Role, error) {
	return f.listByUID[userID], nil
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct {
	salt       string
	compareErr error
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) {
	if f.salt != "" {
		return f.salt, nil
	}
	return "salt", nil
}

func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash-" + password, nil
}

func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if f.compareErr != nil {
		return f.compareErr
	}
	if hash != "hash-"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	token string
	err   error
}

func (f *fakeTokenIssuer) Issue(userID, email string, roles []string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.token != "" {
		return f.token, nil
	}
	return "token-" + userID, nil
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates unapproved resident", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		roleRepo := newFakeRoleRepo()
		svc := NewUserService(userRepo, roleRepo, &fakePasswordHasher{salt: "s"}, nil, nil, 2*time.Second)

		user, err := svc.Register(ctx, &domain.Registration{
			Email:    "Alice@Example.com ",
			FullName: "Alice Resident",
			Phone:    "555-0100",
			Password: "password8",
		})
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.False(t, user.Approved)
		assert.Equal(t, []string{domain.RoleResident}, user.Roles)
		assert.Equal(t, "hash-password8", user.PasswordHash)
		assert.Equal(t, "s", user.Salt)
		assert.Equal(t, []string{"role-resident"}, userRepo.assigned[user.ID])
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		userRepo.byEmail["alice@example.com"] = &domain.User{ID: "user-0", Email: "alice@example.com"}
		svc := NewUserService(userRepo, newFakeRoleRepo(), &fakePasswordHasher{}, nil, nil, 2*time.Second)

		_, err := svc.Register(ctx, &domain.Registration{Email: "alice@example.com", FullName: "Alice", Password: "password8"})
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("short password", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(), newFakeRoleRepo(), &fakePasswordHasher{}, nil, nil, 2*time.Second)

		_, err := svc.Register(ctx, &domain.Registration{Email: "alice@example.com", FullName: "Alice", Password: "short"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least")
	})

	t.Run("invalid email format", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(), newFakeRoleRepo(), &fakePasswordHasher{}, nil, nil, 2*time.Second)

		_, err := svc.Register(ctx, &domain.Registration{Email: "not-an-email", FullName: "Alice", Password: "password8"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid email")
	})
}

func TestUserService_CreateStaff(t *testing.T) {
	ctx := context.Background()

	t.Run("creates approved security account", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		svc := NewUserService(userRepo, newFakeRoleRepo(), &fakePasswordHasher{}, nil, nil, 2*time.Second)

		user, err := svc.CreateStaff(ctx, &domain.StaffInput{
			Email:    "guard@example.com",
			FullName: "Gate Guard",
			Password: "password8",
			Role:     domain.RoleSecurity,
		})
		require.NoError(t, err)
		assert.True(t, user.Approved)
		assert.Equal(t, []string{domain.RoleSecurity}, user.Roles)
		assert.Equal(t, []string{"role-security"}, userRepo.assigned[user.ID])
	})

	t.Run("unknown role", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(), newFakeRoleRepo(), &fakePasswordHasher{}, nil, nil, 2*time.Second)

		_, err := svc.CreateStaff(ctx, &domain.StaffInput{
			Email:    "guard@example.com",
			FullName: "Gate Guard",
			Password: "password8",
			Role:     "janitor",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown role")
	})
}

func TestUserService_ApproveAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("approves and notifies", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		userRepo.byID["user-1"] = &domain.User{ID: "user-1", Email: "alice@example.com", FullName: "Alice"}
		roleRepo := newFakeRoleRepo()
		roleRepo.listByUID["user-1"] = []*domain.Role{domain.NewRole("role-resident", domain.RoleResident)}
		notifier := &fakeNotifier{}
		emails := &fakeEmailService{}
		svc := NewUserService(userRepo, roleRepo, &fakePasswordHasher{}, notifier, emails, 2*time.Second)

		user, err := svc.ApproveAccount(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, user.Approved)
		assert.Equal(t, []string{domain.RoleResident}, user.Roles)

		require.Len(t, notifier.notified, 1)
		assert.Equal(t, "user-1", notifier.notified[0].userID)
		assert.Equal(t, domain.KindAccountApproved, notifier.notified[0].kind)
		assert.Equal(t, []string{"account_approved"}, emails.sent)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(), newFakeRoleRepo(), &fakePasswordHasher{}, nil, nil, 2*time.Second)

		_, err := svc.ApproveAccount(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("notice failures do not fail approval", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		userRepo.byID["user-1"] = &domain.User{ID: "user-1", Email: "alice@example.com", FullName: "Alice"}
		notifier := &fakeNotifier{err: errors.New("db down")}
		emails := &fakeEmailService{err: errors.New("smtp down")}
		svc := NewUserService(userRepo, newFakeRoleRepo(), &fakePasswordHasher{}, notifier, emails, 2*time.Second)

		user, err := svc.ApproveAccount(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, user.Approved)
	})
}

func TestUserService_GetByID(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo()
	userRepo.byID["user-1"] = &domain.User{ID: "user-1", Email: "alice@example.com", FullName: "Alice"}
	roleRepo := newFakeRoleRepo()
	roleRepo.listByUID["user-1"] = []*domain.Role{domain.NewRole("role-resident", domain.RoleResident)}
	svc := NewUserService(userRepo, roleRepo, &fakePasswordHasher{}, nil, nil, 2*time.Second)

	user, err := svc.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, []string{domain.RoleResident}, user.Roles)

	_, err = svc.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
