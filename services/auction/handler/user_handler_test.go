package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	users "auction-house/internal/userService"
	"auction-house/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

// Test RegisterHandler
func TestRegisterHandler(t *testing.T) {
	valid := map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
		"role":     "bidder",
	}

	with := func(key string, value any) map[string]any {
		body := make(map[string]any, len(valid))
		for k, v := range valid {
			body[k] = v
		}
		body[key] = value
		return body
	}

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m *MockUserServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			requestBody: valid,
			mockSetup: func(m *MockUserServiceInterface) {
				m.EXPECT().Register(gomock.Any(), users.RegisterInput{
					Username: "alice",
					Email:    "alice@example.com",
					Password: "password123",
					Role:     models.RoleBidder,
				}).Return(models.User{UserID: "u1", Username: "alice", Role: models.RoleBidder, PasswordHash: "secret-hash"}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "user registered successfully",
		},
		{
			name:           "bad_email",
			requestBody:    with("email", "not-an-email"),
			mockSetup:      func(m *MockUserServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "short_password",
			requestBody:    with("password", "short"),
			mockSetup:      func(m *MockUserServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "unknown_role",
			requestBody:    with("role", "masyarakat"),
			mockSetup:      func(m *MockUserServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "duplicate",
			requestBody: valid,
			mockSetup: func(m *MockUserServiceInterface) {
				m.EXPECT().Register(gomock.Any(), gomock.Any()).Return(models.User{}, auctionerrors.ErrDuplicateUser)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "username or email already taken",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockUserServiceInterface(ctrl)
			tc.mockSetup(mockService)

			router := newTestRouter(nil)
			router.POST("/auth/register", NewUserHandler(mockService).RegisterHandler)

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(encodeBody(t, tc.requestBody)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, decodeEnvelope(t, w)["message"], tc.expectedMsg)
			require.NotContains(t, w.Body.String(), "secret-hash")
		})
	}
}

// Test LoginHandler
func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m *MockUserServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			requestBody: map[string]any{"username": "alice", "password": "password123"},
			mockSetup: func(m *MockUserServiceInterface) {
				m.EXPECT().Login(gomock.Any(), "alice", "password123").
					Return(users.LoginResult{Token: "tkn", User: models.User{UserID: "u1"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "login successful",
		},
		{
			name:        "bad_credentials",
			requestBody: map[string]any{"username": "alice", "password": "nope"},
			mockSetup: func(m *MockUserServiceInterface) {
				m.EXPECT().Login(gomock.Any(), "alice", "nope").Return(users.LoginResult{}, auctionerrors.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "invalid credentials",
		},
		{
			name:           "missing_password",
			requestBody:    map[string]any{"username": "alice"},
			mockSetup:      func(m *MockUserServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockUserServiceInterface(ctrl)
			tc.mockSetup(mockService)

			router := newTestRouter(nil)
			router.POST("/auth/login", NewUserHandler(mockService).LoginHandler)

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(encodeBody(t, tc.requestBody)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			resp := decodeEnvelope(t, w)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if w.Code == http.StatusOK {
				require.Equal(t, "tkn", resp["data"].(map[string]any)["token"])
			}
		})
	}
}

// Test profile handlers
// Test LogoutHandler
func TestLogoutHandler(t *testing.T) {
	owner := models.Actor{UserID: "u1", Role: models.RoleBidder}
	session := models.Session{TokenID: "jti-1", ExpiresAt: time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)}

	withSession := func(c *gin.Context) {
		helpers.SetSession(c, session)
		c.Next()
	}

	tests := []struct {
		name           string
		actor          *models.Actor
		session        bool
		mockSetup      func(m *MockUserServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:    "success",
			actor:   &owner,
			session: true,
			mockSetup: func(m *MockUserServiceInterface) {
				m.EXPECT().Logout(gomock.Any(), owner, session).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "logged out successfully",
		},
		{
			name:           "unauthenticated",
			mockSetup:      func(m *MockUserServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "no_session",
			actor:          &owner,
			mockSetup:      func(m *MockUserServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:    "revoke_fails",
			actor:   &owner,
			session: true,
			mockSetup: func(m *MockUserServiceInterface) {
				m.EXPECT().Logout(gomock.Any(), owner, session).Return(auctionerrors.ErrUnauthorized)
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockUserServiceInterface(ctrl)
			tc.mockSetup(mockService)

			router := newTestRouter(tc.actor)
			if tc.session {
				router.Use(withSession)
			}
			router.POST("/auth/logout", NewUserHandler(mockService).LogoutHandler)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

			require.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedMsg != "" {
				require.Equal(t, tc.expectedMsg, decodeEnvelope(t, w)["message"])
			}
		})
	}
}

func TestProfileHandlers(t *testing.T) {
	owner := models.Actor{UserID: "u1", Role: models.RoleBidder}

	t.Run("get_profile", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockUserServiceInterface(ctrl)
		mockService.EXPECT().GetProfile(gomock.Any(), "u1").Return(models.User{UserID: "u1", Username: "alice"}, nil)

		router := newTestRouter(&owner)
		router.GET("/profile", NewUserHandler(mockService).ProfileHandler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "alice", decodeEnvelope(t, w)["data"].(map[string]any)["username"])
	})

	t.Run("get_profile_unauthenticated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(nil)
		router.GET("/profile", NewUserHandler(NewMockUserServiceInterface(ctrl)).ProfileHandler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("update_profile_uses_token_identity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockUserServiceInterface(ctrl)
		mockService.EXPECT().UpdateProfile(gomock.Any(), owner, "u1", models.Profile{Name: "Alice", Bio: "collector"}).
			Return(models.User{UserID: "u1", Name: "Alice", Bio: "collector"}, nil)

		router := newTestRouter(&owner)
		router.PUT("/profile", NewUserHandler(mockService).UpdateProfileHandler)

		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewReader([]byte(`{"name":"Alice","bio":"collector"}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("update_profile_identity_too_long", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(&owner)
		router.PUT("/profile", NewUserHandler(NewMockUserServiceInterface(ctrl)).UpdateProfileHandler)

		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewReader([]byte(`{"name":"Alice","identity_number":"123456789012345678901"}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
