// Package httputil содержит вспомогательные функции для HTTP обработки.
package httputil

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ExtractBearerToken извлекает токен из Authorization header.
// Формат: "Bearer <token>"
// Поддерживает регистронезависимый префикс и обрезает пробелы.
func ExtractBearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// PagedResponse — стандартный конверт для списочных ответов.
type PagedResponse struct {
	Items   any   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// RespondPaged отправляет списочный ответ в едином формате.
func RespondPaged(c *gin.Context, items any, total int64, page, perPage int) {
	c.JSON(http.StatusOK, PagedResponse{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// RespondError отправляет ошибку в едином формате.
func RespondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}
