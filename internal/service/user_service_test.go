package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/testutil"
	"example.com/crm-backend/pkg/jwt"
)

// newTestTokenManager создаёт JWT менеджер для тестов.
func newTestTokenManager(t *testing.T) *jwt.Manager {
	t.Helper()
	manager, err := jwt.NewManager(jwt.Config{
		Secret:          "test-secret-do-not-use-in-prod",
		Issuer:          "crm-backend-test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	return manager
}

// hashPassword хеширует пароль с минимальной стоимостью для скорости тестов.
func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// =====================================
// Тесты Register
// =====================================

func TestRegister(t *testing.T) {
	tests := []struct {
		name        string
		input       RegisterInput
		repoErr     error
		expectedErr error
	}{
		{
			name:        "успешная регистрация",
			input:       RegisterInput{Email: "new@example.com", Password: "strongpass", FullName: "Иван Петров"},
			expectedErr: nil,
		},
		{
			name:        "некорректный email",
			input:       RegisterInput{Email: "не-email", Password: "strongpass"},
			expectedErr: domain.ErrInvalidEmail,
		},
		{
			name:        "слабый пароль",
			input:       RegisterInput{Email: "new@example.com", Password: "short"},
			expectedErr: domain.ErrWeakPassword,
		},
		{
			name:        "недопустимая роль",
			input:       RegisterInput{Email: "new@example.com", Password: "strongpass", Role: domain.Role("superuser")},
			expectedErr: domain.ErrInvalidRole,
		},
		{
			name:        "занятый email",
			input:       RegisterInput{Email: "taken@example.com", Password: "strongpass"},
			repoErr:     domain.ErrEmailExists,
			expectedErr: domain.ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(testutil.MockUserRepository)
			if tt.expectedErr == nil || tt.repoErr != nil {
				users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(tt.repoErr)
			}

			svc := NewUserService(users, newTestTokenManager(t), nil)

			user, err := svc.Register(context.Background(), tt.input)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				// Роль по умолчанию — менеджер
				assert.Equal(t, domain.RoleManager, user.Role)
				assert.True(t, user.Active)
				// Пароль хранится только хешем
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
			}
		})
	}
}

// =====================================
// Тесты Login
// =====================================

func TestLogin(t *testing.T) {
	activeUser := func() *domain.User {
		return &domain.User{
			ID:           "user-1",
			Email:        "user@example.com",
			PasswordHash: hashPassword(t, "strongpass"),
			Role:         domain.RoleManager,
			Active:       true,
		}
	}

	t.Run("успешный вход", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		limiter := new(testutil.MockLoginLimiter)

		users.On("GetByEmail", mock.Anything, "user@example.com").Return(activeUser(), nil)
		limiter.On("IsLocked", mock.Anything, "user@example.com").Return(false, nil)
		limiter.On("ResetAttempts", mock.Anything, "user@example.com").Return(nil)

		svc := NewUserService(users, newTestTokenManager(t), limiter)

		user, pair, err := svc.Login(context.Background(), "User@Example.com", "strongpass")

		require.NoError(t, err)
		require.NotNil(t, user)
		require.NotNil(t, pair)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		limiter.AssertExpectations(t)
	})

	t.Run("неверный пароль фиксируется лимитером", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		limiter := new(testutil.MockLoginLimiter)

		users.On("GetByEmail", mock.Anything, "user@example.com").Return(activeUser(), nil)
		limiter.On("IsLocked", mock.Anything, "user@example.com").Return(false, nil)
		limiter.On("RecordFailure", mock.Anything, "user@example.com").Return(nil)

		svc := NewUserService(users, newTestTokenManager(t), limiter)

		_, _, err := svc.Login(context.Background(), "user@example.com", "wrongpass")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		limiter.AssertExpectations(t)
	})

	t.Run("неизвестный email даёт ту же ошибку", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		limiter := new(testutil.MockLoginLimiter)

		users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrUserNotFound)
		limiter.On("IsLocked", mock.Anything, "ghost@example.com").Return(false, nil)
		limiter.On("RecordFailure", mock.Anything, "ghost@example.com").Return(nil)

		svc := NewUserService(users, newTestTokenManager(t), limiter)

		_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever1")

		require.Error(t, err)
		// Не раскрываем, существует ли пользователь
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("заблокированный аккаунт", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		limiter := new(testutil.MockLoginLimiter)

		limiter.On("IsLocked", mock.Anything, "user@example.com").Return(true, nil)

		svc := NewUserService(users, newTestTokenManager(t), limiter)

		_, _, err := svc.Login(context.Background(), "user@example.com", "strongpass")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrAccountLocked)
		users.AssertNotCalled(t, "GetByEmail")
	})

	t.Run("деактивированный пользователь", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		limiter := new(testutil.MockLoginLimiter)

		inactive := activeUser()
		inactive.Active = false
		users.On("GetByEmail", mock.Anything, "user@example.com").Return(inactive, nil)
		limiter.On("IsLocked", mock.Anything, "user@example.com").Return(false, nil)

		svc := NewUserService(users, newTestTokenManager(t), limiter)

		_, _, err := svc.Login(context.Background(), "user@example.com", "strongpass")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUserInactive)
	})
}

// =====================================
// Тесты Logout
// =====================================

func TestLogout(t *testing.T) {
	t.Run("невалидный токен", func(t *testing.T) {
		users := new(testutil.MockUserRepository)

		svc := NewUserService(users, newTestTokenManager(t), nil)

		err := svc.Logout(context.Background(), "не-jwt-токен")

		require.Error(t, err)
	})

	t.Run("без настроенного blacklist logout проходит", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		manager := newTestTokenManager(t)

		pair, err := manager.GenerateTokenPair("user-1", string(domain.RoleManager))
		require.NoError(t, err)

		svc := NewUserService(users, manager, nil)

		err = svc.Logout(context.Background(), pair.AccessToken)

		require.NoError(t, err)
	})
}
