package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitorgate/internal/delivery/http/helpers"
	"visitorgate/internal/delivery/http/middleware"
	"visitorgate/internal/domain"
)

func TestUserController_GetMe(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		contextUserID string
		fakeUser      *domain.User
		fakeErr       error
		wantStatus    int
		wantBodyCode  string
	}{
		{
			name:          "success",
			contextUserID: "user-123",
			fakeUser:      &domain.User{ID: "user-123", Email: "jane@example.com", FullName: "Jane Njeri", Roles: []string{domain.RoleResident}, Approved: true, CreatedAt: now, UpdatedAt: now},
			wantStatus:    http.StatusOK,
		},
		{
			name:          "no user in context",
			contextUserID: "",
			wantStatus:    http.StatusUnauthorized,
			wantBodyCode:  helpers.ErrCodeUnauthorized,
		},
		{
			name:          "user not found",
			contextUserID: "user-123",
			fakeErr:       domain.ErrNotFound,
			wantStatus:    http.StatusNotFound,
			wantBodyCode:  helpers.ErrCodeNotFound,
		},
		{
			name:          "service error",
			contextUserID: "user-123",
			fakeErr:       assert.AnError,
			wantStatus:    http.StatusInternalServerError,
			wantBodyCode:  helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{getByIDUser: tt.fakeUser, getByIDErr: tt.fakeErr}
			ctrl := NewUserController(testControllerLogger(), fake)

			req := httptest.NewRequest(http.MethodGet, "http://test/api/users/me", nil)
			if tt.contextUserID != "" {
				req = req.WithContext(middleware.SetUserID(req.Context(), tt.contextUserID))
			}
			rr := httptest.NewRecorder()

			ctrl.GetMe(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var u domain.User
				require.NoError(t, json.Unmarshal(dataBytes, &u))
				assert.Equal(t, "user-123", u.ID)
				assert.Equal(t, []string{domain.RoleResident}, u.Roles)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
		})
	}
}

func TestUserController_ApproveAccount(t *testing.T) {
	const pendingID = "7b8e1c3d-4f5a-4b6c-8d9e-0f1a2b3c4d5e"

	tests := []struct {
		name         string
		pathID       string
		approveErr   error
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			pathID:     pendingID,
			wantStatus: http.StatusOK,
		},
		{
			name:         "invalid id",
			pathID:       "not-a-uuid",
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "not found",
			pathID:       pendingID,
			approveErr:   domain.ErrNotFound,
			wantStatus:   http.StatusNotFound,
			wantBodyCode: helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{approveErr: tt.approveErr}
			ctrl := NewUserController(testControllerLogger(), fake)

			req := httptest.NewRequest(http.MethodPost, "http://test/api/users/"+tt.pathID+"/approve", nil)
			req.SetPathValue("id", tt.pathID)
			rr := httptest.NewRecorder()

			ctrl.ApproveAccount(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				assert.Equal(t, pendingID, fake.approvedID)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
		})
	}
}

func TestUserController_CreateStaff(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		staffErr     error
		wantStatus   int
		wantBodyCode string
		wantRole     string
	}{
		{
			name:       "creates security officer",
			body:       `{"email":"guard@example.com","password":"password8","full_name":"Otis Gate","role":"security"}`,
			wantStatus: http.StatusCreated,
			wantRole:   domain.RoleSecurity,
		},
		{
			name:         "unknown role",
			body:         `{"email":"x@example.com","password":"password8","full_name":"X","role":"janitor"}`,
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "duplicate email",
			body:         `{"email":"guard@example.com","password":"password8","full_name":"Otis Gate","role":"security"}`,
			staffErr:     domain.ErrDuplicateEmail,
			wantStatus:   http.StatusConflict,
			wantBodyCode: helpers.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{staffErr: tt.staffErr}
			ctrl := NewUserController(testControllerLogger(), fake)

			req := httptest.NewRequest(http.MethodPost, "http://test/api/users", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			ctrl.CreateStaff(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				require.NotNil(t, fake.staffInput)
				assert.Equal(t, tt.wantRole, fake.staffInput.Role)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
		})
	}
}

func TestUserController_ListPending(t *testing.T) {
	pending := []*domain.User{
		{ID: "user-1", Email: "a@example.com", FullName: "A"},
		{ID: "user-2", Email: "b@example.com", FullName: "B"},
	}
	fake := &fakeUserService{pending: pending}
	ctrl := NewUserController(testControllerLogger(), fake)

	req := httptest.NewRequest(http.MethodGet, "http://test/api/users/pending?page=1&page_size=10", nil)
	rr := httptest.NewRecorder()

	ctrl.ListPending(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.Nil(t, envelope.Error)
	dataBytes, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var users []*domain.User
	require.NoError(t, json.Unmarshal(dataBytes, &users))
	require.Len(t, users, 2)
	assert.Equal(t, "user-1", users[0].ID)
}
