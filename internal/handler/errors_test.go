package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"example.com/crm-backend/internal/domain"
)

// TestHandleServiceError проверяет маппинг доменных ошибок в HTTP статусы.
func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "не найдено",
			err:            domain.ErrOrderNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "not_found",
		},
		{
			name:           "обёрнутая ошибка не найдено",
			err:            fmt.Errorf("получение заказа: %w", domain.ErrOrderNotFound),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "not_found",
		},
		{
			name:           "ошибка валидации",
			err:            domain.ErrInvalidAmount,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "validation_error",
		},
		{
			name:           "конфликт",
			err:            domain.ErrClientHasOrders,
			expectedStatus: http.StatusConflict,
			expectedCode:   "conflict",
		},
		{
			name:           "проведённый платёж",
			err:            domain.ErrPaymentCompleted,
			expectedStatus: http.StatusConflict,
			expectedCode:   "conflict",
		},
		{
			name:           "неверные учётные данные",
			err:            domain.ErrInvalidCredentials,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "invalid_credentials",
		},
		{
			name:           "деактивированный пользователь",
			err:            domain.ErrUserInactive,
			expectedStatus: http.StatusForbidden,
			expectedCode:   "user_inactive",
		},
		{
			name:           "заблокированный аккаунт",
			err:            domain.ErrAccountLocked,
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   "account_locked",
		},
		{
			name:           "неизвестная ошибка",
			err:            errors.New("соединение с базой потеряно"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "internal_error",
		},
		{
			name:           "nil ошибка — баг вызывающего кода",
			err:            nil,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			HandleServiceError(c, tt.err, "TestMethod")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedCode)
		})
	}
}
