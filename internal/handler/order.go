// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/httputil"
	"example.com/crm-backend/internal/service"
	"example.com/crm-backend/pkg/logger"
)

// OrderHandler — обработчик заказов.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler создаёт новый обработчик заказов.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// === Request/Response DTOs ===

// CreateOrderRequest — запрос на создание заказа.
type CreateOrderRequest struct {
	ClientID        string                   `json:"client_id" binding:"required"`
	Currency        string                   `json:"currency"`
	DeliveryAddress string                   `json:"delivery_address"`
	DeliveryDate    *time.Time               `json:"delivery_date"`
	Notes           string                   `json:"notes"`
	Items           []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrderItemRequest — позиция в запросе на создание заказа.
type CreateOrderItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// UpdateOrderRequest — частичное обновление заказа.
// Позиции и итоговая сумма через обновление не меняются.
type UpdateOrderRequest struct {
	ClientID        *string    `json:"client_id"`
	Status          *string    `json:"status"`
	Currency        *string    `json:"currency"`
	DeliveryAddress *string    `json:"delivery_address"`
	DeliveryDate    *time.Time `json:"delivery_date"`
	Notes           *string    `json:"notes"`
}

// OrderItemResponse — позиция заказа в ответе.
type OrderItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderResponse — информация о заказе в ответе.
type OrderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	ClientID        string              `json:"client_id"`
	Status          string              `json:"status"`
	OrderDate       time.Time           `json:"order_date"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Currency        string              `json:"currency,omitempty"`
	DeliveryAddress string              `json:"delivery_address,omitempty"`
	DeliveryDate    *time.Time          `json:"delivery_date,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	PaidAmount      decimal.Decimal     `json:"paid_amount"`
	DebtAmount      decimal.Decimal     `json:"debt_amount"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func orderToResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
	}

	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		ClientID:        o.ClientID,
		Status:          string(o.Status),
		OrderDate:       o.OrderDate,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		DeliveryAddress: o.DeliveryAddress,
		DeliveryDate:    o.DeliveryDate,
		Notes:           o.Notes,
		Items:           items,
		PaidAmount:      o.PaidAmount,
		DebtAmount:      o.DebtAmount,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// === Handlers ===

// CreateOrder создаёт новый заказ с позициями.
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на создание заказа")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	order, err := h.orderService.CreateOrder(ctx, service.CreateOrderInput{
		ClientID:        req.ClientID,
		Currency:        req.Currency,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		Notes:           req.Notes,
		Items:           items,
	})
	if err != nil {
		HandleServiceError(c, err, "CreateOrder")
		return
	}

	log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Int("items_count", len(order.Items)).
		Msg("Заказ создан")

	c.JSON(http.StatusCreated, orderToResponse(order))
}

// GetOrder возвращает заказ по ID с позициями и суммой оплат.
// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()

	order, err := h.orderService.GetOrder(ctx, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "GetOrder")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}

// ListOrders возвращает список заказов с фильтрацией и пагинацией.
// GET /api/v1/orders?client_id=&status=&page=1&per_page=20
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.OrderFilter{
		ClientID: c.Query("client_id"),
		Status:   domain.OrderStatus(c.Query("status")),
		Page:     queryInt(c, "page"),
		PerPage:  queryInt(c, "per_page"),
	}

	orders, total, err := h.orderService.ListOrders(ctx, filter)
	if err != nil {
		HandleServiceError(c, err, "ListOrders")
		return
	}

	items := make([]OrderResponse, len(orders))
	for i, o := range orders {
		items[i] = orderToResponse(o)
	}

	httputil.RespondPaged(c, items, total, normalizedPage(filter.Page), normalizedPerPage(filter.PerPage))
}

// UpdateOrder применяет частичное обновление заказа.
// PATCH /api/v1/orders/:id
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на обновление заказа")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	upd := &domain.OrderUpdate{
		ClientID:        req.ClientID,
		Currency:        req.Currency,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		Notes:           req.Notes,
	}
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		upd.Status = &status
	}

	order, err := h.orderService.UpdateOrder(ctx, c.Param("id"), upd)
	if err != nil {
		HandleServiceError(c, err, "UpdateOrder")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}

// DeleteOrder удаляет заказ с позициями.
// Удаление разрешено только для new/cancelled заказов без платежей.
// DELETE /api/v1/orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.orderService.DeleteOrder(ctx, c.Param("id")); err != nil {
		HandleServiceError(c, err, "DeleteOrder")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Заказ удалён",
	})
}
