// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/pkg/logger"
)

// ErrorResponse — стандартный формат ошибки API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleServiceError преобразует доменную ошибку в HTTP ответ.
// Используется всеми handlers для единообразной обработки ошибок.
// ВАЖНО: err не должен быть nil — это баг в вызывающем коде.
func HandleServiceError(c *gin.Context, err error, method string) {
	// Guard: nil ошибка — баг в вызывающем коде, логируем и возвращаем 500.
	if err == nil {
		logger.Error().Str("method", method).Msg("HandleServiceError вызван с nil ошибкой — баг в коде")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	log := logger.FromContext(c.Request.Context())

	switch {
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case domain.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrUserInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "user_inactive",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:   "account_locked",
			Message: err.Error(),
		})
	default:
		log.Error().Err(err).Str("method", method).Msg("Внутренняя ошибка")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Внутренняя ошибка сервера",
		})
	}
}
