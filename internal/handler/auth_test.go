// Package handler содержит unit тесты для AuthHandler.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/middleware"
	"example.com/crm-backend/internal/service"
	"example.com/crm-backend/pkg/jwt"
)

// MockUserService — мок для service.UserService.
type MockUserService struct {
	RegisterFunc func(ctx context.Context, input service.RegisterInput) (*domain.User, error)
	LoginFunc    func(ctx context.Context, email, password string) (*domain.User, *jwt.TokenPair, error)
	LogoutFunc   func(ctx context.Context, token string) error
	GetUserFunc  func(ctx context.Context, userID string) (*domain.User, error)
}

func (m *MockUserService) Register(ctx context.Context, input service.RegisterInput) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, input)
	}
	return nil, nil
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*domain.User, *jwt.TokenPair, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, nil, nil
}

func (m *MockUserService) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

func (m *MockUserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, userID)
	}
	return nil, nil
}

func setupAuthRouter(handler *AuthHandler, userID string) *gin.Engine {
	r := gin.New()

	// Имитация auth middleware для защищённых маршрутов
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextUserID, userID)
		}
		c.Next()
	})

	r.POST("/api/v1/auth/register", handler.Register)
	r.POST("/api/v1/auth/login", handler.Login)
	r.POST("/api/v1/auth/logout", handler.Logout)
	r.GET("/api/v1/users/me", handler.GetMe)

	return r
}

func testUser() *domain.User {
	return &domain.User{
		ID:       "user-1",
		Email:    "user@example.com",
		FullName: "Иван Петров",
		Role:     domain.RoleManager,
		Active:   true,
	}
}

func TestRegisterHandler(t *testing.T) {
	t.Run("успешная регистрация", func(t *testing.T) {
		mock := &MockUserService{
			RegisterFunc: func(_ context.Context, input service.RegisterInput) (*domain.User, error) {
				assert.Equal(t, "user@example.com", input.Email)
				return testUser(), nil
			},
		}
		router := setupAuthRouter(NewAuthHandler(mock), "")

		body := []byte(`{"email":"user@example.com","password":"strongpass","full_name":"Иван Петров"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "user@example.com", resp.Email)
		assert.Equal(t, "manager", resp.Role)
		// Хеш пароля никогда не попадает в ответ
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("короткий пароль отклоняется на binding", func(t *testing.T) {
		router := setupAuthRouter(NewAuthHandler(&MockUserService{}), "")

		body := []byte(`{"email":"user@example.com","password":"short","full_name":"Иван"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("занятый email", func(t *testing.T) {
		mock := &MockUserService{
			RegisterFunc: func(_ context.Context, _ service.RegisterInput) (*domain.User, error) {
				return nil, domain.ErrEmailExists
			},
		}
		router := setupAuthRouter(NewAuthHandler(mock), "")

		body := []byte(`{"email":"taken@example.com","password":"strongpass","full_name":"Иван"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("успешный вход", func(t *testing.T) {
		mock := &MockUserService{
			LoginFunc: func(_ context.Context, email, password string) (*domain.User, *jwt.TokenPair, error) {
				return testUser(), &jwt.TokenPair{
					AccessToken:  "access-token",
					RefreshToken: "refresh-token",
					ExpiresAt:    1750000000,
				}, nil
			},
		}
		router := setupAuthRouter(NewAuthHandler(mock), "")

		body := []byte(`{"email":"user@example.com","password":"strongpass"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "access-token", resp.AccessToken)
		assert.Equal(t, "refresh-token", resp.RefreshToken)
		assert.Equal(t, "user@example.com", resp.User.Email)
	})

	t.Run("неверные учётные данные", func(t *testing.T) {
		mock := &MockUserService{
			LoginFunc: func(_ context.Context, _, _ string) (*domain.User, *jwt.TokenPair, error) {
				return nil, nil, domain.ErrInvalidCredentials
			},
		}
		router := setupAuthRouter(NewAuthHandler(mock), "")

		body := []byte(`{"email":"user@example.com","password":"wrongpass"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_credentials")
	})

	t.Run("заблокированный аккаунт", func(t *testing.T) {
		mock := &MockUserService{
			LoginFunc: func(_ context.Context, _, _ string) (*domain.User, *jwt.TokenPair, error) {
				return nil, nil, domain.ErrAccountLocked
			},
		}
		router := setupAuthRouter(NewAuthHandler(mock), "")

		body := []byte(`{"email":"user@example.com","password":"strongpass"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	t.Run("без токена", func(t *testing.T) {
		router := setupAuthRouter(NewAuthHandler(&MockUserService{}), "")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("успешный выход", func(t *testing.T) {
		mock := &MockUserService{
			LogoutFunc: func(_ context.Context, token string) error {
				assert.Equal(t, "some-token", token)
				return nil
			},
		}
		router := setupAuthRouter(NewAuthHandler(mock), "")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetMeHandler(t *testing.T) {
	t.Run("пользователь найден", func(t *testing.T) {
		mock := &MockUserService{
			GetUserFunc: func(_ context.Context, userID string) (*domain.User, error) {
				assert.Equal(t, "user-1", userID)
				return testUser(), nil
			},
		}
		router := setupAuthRouter(NewAuthHandler(mock), "user-1")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "user-1", resp.ID)
	})

	t.Run("без аутентификации", func(t *testing.T) {
		router := setupAuthRouter(NewAuthHandler(&MockUserService{}), "")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
