// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/service"
	"example.com/crm-backend/pkg/logger"
)

// ReportHandler — обработчик финансовых отчётов.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler создаёт новый обработчик отчётов.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// === Response DTOs ===

// SummaryResponse — сводные показатели бизнеса.
type SummaryResponse struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	TotalClients  int64           `json:"total_clients"`
	TotalProducts int64           `json:"total_products"`
}

// RevenueByDayResponse — выручка за один календарный день.
type RevenueByDayResponse struct {
	Date         string          `json:"date"` // YYYY-MM-DD
	Revenue      decimal.Decimal `json:"revenue"`
	PaymentCount int64           `json:"payment_count"`
}

// TopClientResponse — строка отчёта по лучшим клиентам.
type TopClientResponse struct {
	ClientID   string          `json:"client_id"`
	ClientName string          `json:"client_name"`
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int64           `json:"order_count"`
}

// ClientDebtResponse — строка отчёта по должникам.
type ClientDebtResponse struct {
	ClientID   string          `json:"client_id"`
	ClientName string          `json:"client_name"`
	Phone      string          `json:"phone,omitempty"`
	TotalDebt  decimal.Decimal `json:"total_debt"`
	OrderCount int64           `json:"order_count"`
}

// === Handlers ===

// Summary возвращает сводные показатели бизнеса.
// GET /api/v1/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.reportService.Summary(ctx)
	if err != nil {
		HandleServiceError(c, err, "Summary")
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		TotalOrders:   summary.TotalOrders,
		TotalRevenue:  summary.TotalRevenue,
		TotalDebt:     summary.TotalDebt,
		TotalClients:  summary.TotalClients,
		TotalProducts: summary.TotalProducts,
	})
}

// RevenueByPeriod возвращает выручку по дням за скользящее окно.
// Дни без проведённых платежей в ответ не попадают.
// GET /api/v1/reports/revenue?days=30
func (h *ReportHandler) RevenueByPeriod(c *gin.Context) {
	ctx := c.Request.Context()

	days := queryInt(c, "days")

	revenue, err := h.reportService.RevenueByPeriod(ctx, days)
	if err != nil {
		HandleServiceError(c, err, "RevenueByPeriod")
		return
	}

	items := make([]RevenueByDayResponse, len(revenue))
	for i, r := range revenue {
		items[i] = RevenueByDayResponse{
			Date:         r.Date.Format(time.DateOnly),
			Revenue:      r.Revenue,
			PaymentCount: r.PaymentCount,
		}
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// TopClients возвращает клиентов с наибольшей выручкой.
// GET /api/v1/reports/top-clients?limit=10
func (h *ReportHandler) TopClients(c *gin.Context) {
	ctx := c.Request.Context()

	limit := queryInt(c, "limit")

	clients, err := h.reportService.TopClients(ctx, limit)
	if err != nil {
		HandleServiceError(c, err, "TopClients")
		return
	}

	items := make([]TopClientResponse, len(clients))
	for i, tc := range clients {
		items[i] = topClientToResponse(tc)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Debts возвращает клиентов с задолженностью выше порога.
// GET /api/v1/reports/debts?min_debt=0
func (h *ReportHandler) Debts(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	minDebt := decimal.Zero
	if s := c.Query("min_debt"); s != "" {
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			log.Debug().Str("min_debt", s).Msg("Невалидный порог задолженности")
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Невалидное значение min_debt",
			})
			return
		}
		minDebt = parsed
	}

	debts, err := h.reportService.Debts(ctx, minDebt)
	if err != nil {
		HandleServiceError(c, err, "Debts")
		return
	}

	items := make([]ClientDebtResponse, len(debts))
	for i, d := range debts {
		items[i] = ClientDebtResponse{
			ClientID:   d.ClientID,
			ClientName: d.ClientName,
			Phone:      d.Phone,
			TotalDebt:  d.TotalDebt,
			OrderCount: d.OrderCount,
		}
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func topClientToResponse(tc domain.TopClient) TopClientResponse {
	return TopClientResponse{
		ClientID:   tc.ClientID,
		ClientName: tc.ClientName,
		Revenue:    tc.Revenue,
		OrderCount: tc.OrderCount,
	}
}
