// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/httputil"
	"example.com/crm-backend/internal/middleware"
	"example.com/crm-backend/internal/service"
	"example.com/crm-backend/pkg/logger"
)

// AuthHandler — обработчик аутентификации.
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler создаёт новый обработчик аутентификации.
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
	}
}

// RegisterRequest — запрос на регистрацию.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required,min=2"`
	Role     string `json:"role"`
}

// UserResponse — информация о пользователе в ответе.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// Register регистрирует нового пользователя.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на регистрацию")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	user, err := h.userService.Register(ctx, service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		HandleServiceError(c, err, "Register")
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user))
}

// LoginRequest — запрос на вход.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse — ответ на вход.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    int64        `json:"expires_at"`
	User         UserResponse `json:"user"`
}

// Login аутентифицирует пользователя.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на вход")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	user, pair, err := h.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		HandleServiceError(c, err, "Login")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         userToResponse(user),
	})
}

// Logout выход из системы.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	token := httputil.ExtractBearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Отсутствует токен авторизации",
		})
		return
	}

	if err := h.userService.Logout(ctx, token); err != nil {
		log.Debug().Err(err).Msg("Logout с невалидным токеном")
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Невалидный токен",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Выход выполнен",
	})
}

// GetMe возвращает текущего пользователя.
// GET /api/v1/users/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Требуется авторизация",
		})
		return
	}

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		HandleServiceError(c, err, "GetMe")
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}
