// Package middleware содержит HTTP middleware для API сервера.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/crm-backend/internal/httputil"
	"example.com/crm-backend/pkg/jwt"
	"example.com/crm-backend/pkg/logger"
)

// Ключи gin-контекста, заполняемые AuthMiddleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextJTI    = "jti"
)

// TokenValidator — интерфейс для валидации токенов.
// Позволяет мокировать в тестах вместо реального jwt.Manager.
type TokenValidator interface {
	ValidateWithBlacklist(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// AuthMiddleware — middleware для проверки JWT токенов.
// Проверяет подпись, срок действия и отзыв через blacklist.
type AuthMiddleware struct {
	tokenValidator TokenValidator
}

// NewAuthMiddleware создаёт новый middleware для аутентификации.
// Принимает TokenValidator (обычно *jwt.Manager).
func NewAuthMiddleware(tokenValidator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

// Handle возвращает Gin handler function для middleware.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		token := httputil.ExtractBearerToken(c)
		if token == "" {
			log.Debug().Msg("Отсутствует токен авторизации")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Требуется авторизация",
			})
			return
		}

		claims, err := m.tokenValidator.ValidateWithBlacklist(ctx, token)
		if err != nil {
			log.Warn().Err(err).Msg("Ошибка валидации токена")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Невалидный токен",
			})
			return
		}

		// Сохраняем данные пользователя в контекст Gin
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextJTI, claims.ID)

		log.Debug().
			Str("user_id", claims.UserID).
			Str("role", claims.Role).
			Msg("Пользователь аутентифицирован")

		c.Next()
	}
}

// RequireRole возвращает middleware, пропускающий только указанные роли.
// Должен стоять после AuthMiddleware — роль берётся из gin-контекста.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if _, ok := allowed[role]; !ok {
			log := logger.FromContext(c.Request.Context())
			log.Warn().
				Str("role", role).
				Str("path", c.Request.URL.Path).
				Msg("Доступ запрещён: недостаточно прав")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Недостаточно прав для выполнения операции",
			})
			return
		}
		c.Next()
	}
}
