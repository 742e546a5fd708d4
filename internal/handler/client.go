// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/httputil"
	"example.com/crm-backend/internal/service"
	"example.com/crm-backend/pkg/logger"
)

// ClientHandler — обработчик клиентов.
type ClientHandler struct {
	clientService service.ClientService
}

// NewClientHandler создаёт новый обработчик клиентов.
func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
	}
}

// === Request/Response DTOs ===

// CreateClientRequest — запрос на создание клиента.
type CreateClientRequest struct {
	Name    string `json:"name" binding:"required,min=1"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	City    string `json:"city"`
	Address string `json:"address"`
	INN     string `json:"inn"`
	Notes   string `json:"notes"`
}

// UpdateClientRequest — частичное обновление клиента.
// nil-поле означает "не менять".
type UpdateClientRequest struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	City    *string `json:"city"`
	Address *string `json:"address"`
	INN     *string `json:"inn"`
	Notes   *string `json:"notes"`
}

// ClientResponse — информация о клиенте в ответе.
type ClientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	City      string    `json:"city,omitempty"`
	Address   string    `json:"address,omitempty"`
	INN       string    `json:"inn,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func clientToResponse(cl *domain.Client) ClientResponse {
	return ClientResponse{
		ID:        cl.ID,
		Name:      cl.Name,
		Company:   cl.Company,
		Phone:     cl.Phone,
		Email:     cl.Email,
		City:      cl.City,
		Address:   cl.Address,
		INN:       cl.INN,
		Notes:     cl.Notes,
		CreatedAt: cl.CreatedAt,
		UpdatedAt: cl.UpdatedAt,
	}
}

// === Handlers ===

// CreateClient создаёт нового клиента.
// POST /api/v1/clients
func (h *ClientHandler) CreateClient(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на создание клиента")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	client, err := h.clientService.CreateClient(ctx, &domain.Client{
		Name:    req.Name,
		Company: req.Company,
		Phone:   req.Phone,
		Email:   req.Email,
		City:    req.City,
		Address: req.Address,
		INN:     req.INN,
		Notes:   req.Notes,
	})
	if err != nil {
		HandleServiceError(c, err, "CreateClient")
		return
	}

	c.JSON(http.StatusCreated, clientToResponse(client))
}

// GetClient возвращает клиента по ID.
// GET /api/v1/clients/:id
func (h *ClientHandler) GetClient(c *gin.Context) {
	ctx := c.Request.Context()

	client, err := h.clientService.GetClient(ctx, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "GetClient")
		return
	}

	c.JSON(http.StatusOK, clientToResponse(client))
}

// ListClients возвращает список клиентов с фильтрацией и пагинацией.
// GET /api/v1/clients?search=&city=&page=1&per_page=20
func (h *ClientHandler) ListClients(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.ClientFilter{
		Search:  c.Query("search"),
		City:    c.Query("city"),
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "per_page"),
	}

	clients, total, err := h.clientService.ListClients(ctx, filter)
	if err != nil {
		HandleServiceError(c, err, "ListClients")
		return
	}

	items := make([]ClientResponse, len(clients))
	for i, cl := range clients {
		items[i] = clientToResponse(cl)
	}

	httputil.RespondPaged(c, items, total, normalizedPage(filter.Page), normalizedPerPage(filter.PerPage))
}

// UpdateClient применяет частичное обновление клиента.
// PATCH /api/v1/clients/:id
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на обновление клиента")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	client, err := h.clientService.UpdateClient(ctx, c.Param("id"), &domain.ClientUpdate{
		Name:    req.Name,
		Company: req.Company,
		Phone:   req.Phone,
		Email:   req.Email,
		City:    req.City,
		Address: req.Address,
		INN:     req.INN,
		Notes:   req.Notes,
	})
	if err != nil {
		HandleServiceError(c, err, "UpdateClient")
		return
	}

	c.JSON(http.StatusOK, clientToResponse(client))
}

// DeleteClient удаляет клиента. Клиент с заказами не удаляется.
// DELETE /api/v1/clients/:id
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.clientService.DeleteClient(ctx, c.Param("id")); err != nil {
		HandleServiceError(c, err, "DeleteClient")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Клиент удалён",
	})
}

// === Helper functions ===

// queryInt парсит числовой query-параметр. 0 означает "не задан".
func queryInt(c *gin.Context, name string) int {
	if s := c.Query(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return 0
}

// normalizedPage повторяет нормализацию сервисного слоя для echo в ответе.
func normalizedPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// normalizedPerPage повторяет нормализацию сервисного слоя для echo в ответе.
func normalizedPerPage(perPage int) int {
	if perPage < 1 {
		return 20
	}
	if perPage > 100 {
		return 100
	}
	return perPage
}
