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

// PaymentHandler — обработчик платежей.
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler создаёт новый обработчик платежей.
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// === Request/Response DTOs ===

// CreatePaymentRequest — запрос на создание платежа.
// Платёж всегда создаётся в статусе pending.
type CreatePaymentRequest struct {
	OrderID     string          `json:"order_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency"`
	Type        string          `json:"type"`
	Method      string          `json:"method"`
	PaymentDate *time.Time      `json:"payment_date"`
	Notes       string          `json:"notes"`
}

// UpdatePaymentRequest — частичное обновление платежа.
type UpdatePaymentRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Currency    *string          `json:"currency"`
	Type        *string          `json:"type"`
	Method      *string          `json:"method"`
	Status      *string          `json:"status"`
	PaymentDate *time.Time       `json:"payment_date"`
	Notes       *string          `json:"notes"`
}

// PaymentResponse — информация о платеже в ответе.
type PaymentResponse struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Type        string          `json:"type"`
	Method      string          `json:"method,omitempty"`
	Status      string          `json:"status"`
	PaymentDate time.Time       `json:"payment_date"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func paymentToResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Type:        string(p.Type),
		Method:      p.Method,
		Status:      string(p.Status),
		PaymentDate: p.PaymentDate,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// === Handlers ===

// CreatePayment создаёт новый платёж по заказу.
// POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на создание платежа")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	payment, err := h.paymentService.CreatePayment(ctx, service.CreatePaymentInput{
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Type:        domain.PaymentType(req.Type),
		Method:      req.Method,
		PaymentDate: req.PaymentDate,
		Notes:       req.Notes,
	})
	if err != nil {
		HandleServiceError(c, err, "CreatePayment")
		return
	}

	log.Info().
		Str("payment_id", payment.ID).
		Str("order_id", payment.OrderID).
		Msg("Платёж создан")

	c.JSON(http.StatusCreated, paymentToResponse(payment))
}

// GetPayment возвращает платёж по ID.
// GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	ctx := c.Request.Context()

	payment, err := h.paymentService.GetPayment(ctx, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "GetPayment")
		return
	}

	c.JSON(http.StatusOK, paymentToResponse(payment))
}

// ListPayments возвращает список платежей с фильтрацией и пагинацией.
// GET /api/v1/payments?order_id=&status=&type=&page=1&per_page=20
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.PaymentFilter{
		OrderID: c.Query("order_id"),
		Status:  domain.PaymentStatus(c.Query("status")),
		Type:    domain.PaymentType(c.Query("type")),
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "per_page"),
	}

	payments, total, err := h.paymentService.ListPayments(ctx, filter)
	if err != nil {
		HandleServiceError(c, err, "ListPayments")
		return
	}

	items := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = paymentToResponse(p)
	}

	httputil.RespondPaged(c, items, total, normalizedPage(filter.Page), normalizedPerPage(filter.PerPage))
}

// UpdatePayment применяет частичное обновление платежа.
// У проведённого платежа меняются только заметки, если обновление
// явно не отменяет платёж.
// PATCH /api/v1/payments/:id
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на обновление платежа")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	upd := &domain.PaymentUpdate{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Method:      req.Method,
		PaymentDate: req.PaymentDate,
		Notes:       req.Notes,
	}
	if req.Type != nil {
		pt := domain.PaymentType(*req.Type)
		upd.Type = &pt
	}
	if req.Status != nil {
		ps := domain.PaymentStatus(*req.Status)
		upd.Status = &ps
	}

	payment, err := h.paymentService.UpdatePayment(ctx, c.Param("id"), upd)
	if err != nil {
		HandleServiceError(c, err, "UpdatePayment")
		return
	}

	c.JSON(http.StatusOK, paymentToResponse(payment))
}

// ConfirmPayment проводит платёж: pending -> completed.
// POST /api/v1/payments/:id/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	payment, err := h.paymentService.ConfirmPayment(ctx, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "ConfirmPayment")
		return
	}

	log.Info().
		Str("payment_id", payment.ID).
		Str("order_id", payment.OrderID).
		Msg("Платёж проведён")

	c.JSON(http.StatusOK, paymentToResponse(payment))
}

// DeletePayment удаляет платёж. Удаляются только ожидающие платежи.
// DELETE /api/v1/payments/:id
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.paymentService.DeletePayment(ctx, c.Param("id")); err != nil {
		HandleServiceError(c, err, "DeletePayment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Платёж удалён",
	})
}
