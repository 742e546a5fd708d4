// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/httputil"
	"example.com/crm-backend/internal/service"
	"example.com/crm-backend/pkg/logger"
)

// ProductHandler — обработчик товаров.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler создаёт новый обработчик товаров.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// === Request/Response DTOs ===

// CreateProductRequest — запрос на создание товара.
type CreateProductRequest struct {
	Name          string          `json:"name" binding:"required,min=1"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	Unit          string          `json:"unit"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
}

// UpdateProductRequest — частичное обновление товара.
type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	SKU           *string          `json:"sku"`
	Price         *decimal.Decimal `json:"price"`
	Currency      *string          `json:"currency"`
	Unit          *string          `json:"unit"`
	StockQuantity *decimal.Decimal `json:"stock_quantity"`
	Category      *string          `json:"category"`
	Description   *string          `json:"description"`
	Active        *bool            `json:"active"`
}

// ProductResponse — информация о товаре в ответе.
type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency,omitempty"`
	Unit          string          `json:"unit,omitempty"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	Category      string          `json:"category,omitempty"`
	Description   string          `json:"description,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func productToResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		Price:         p.Price,
		Currency:      p.Currency,
		Unit:          p.Unit,
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		Description:   p.Description,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// === Handlers ===

// CreateProduct создаёт новый товар.
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на создание товара")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	product, err := h.productService.CreateProduct(ctx, &domain.Product{
		Name:          req.Name,
		SKU:           req.SKU,
		Price:         req.Price,
		Currency:      req.Currency,
		Unit:          req.Unit,
		StockQuantity: req.StockQuantity,
		Category:      req.Category,
		Description:   req.Description,
	})
	if err != nil {
		HandleServiceError(c, err, "CreateProduct")
		return
	}

	c.JSON(http.StatusCreated, productToResponse(product))
}

// GetProduct возвращает товар по ID.
// GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()

	product, err := h.productService.GetProduct(ctx, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "GetProduct")
		return
	}

	c.JSON(http.StatusOK, productToResponse(product))
}

// ListProducts возвращает список товаров с фильтрацией и пагинацией.
// GET /api/v1/products?search=&category=&active=true&page=1&per_page=20
func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.ProductFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     queryInt(c, "page"),
		PerPage:  queryInt(c, "per_page"),
	}

	if activeStr := c.Query("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.Active = &active
		}
	}

	products, total, err := h.productService.ListProducts(ctx, filter)
	if err != nil {
		HandleServiceError(c, err, "ListProducts")
		return
	}

	items := make([]ProductResponse, len(products))
	for i, p := range products {
		items[i] = productToResponse(p)
	}

	httputil.RespondPaged(c, items, total, normalizedPage(filter.Page), normalizedPerPage(filter.PerPage))
}

// UpdateProduct применяет частичное обновление товара.
// PATCH /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на обновление товара")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	product, err := h.productService.UpdateProduct(ctx, c.Param("id"), &domain.ProductUpdate{
		Name:          req.Name,
		SKU:           req.SKU,
		Price:         req.Price,
		Currency:      req.Currency,
		Unit:          req.Unit,
		StockQuantity: req.StockQuantity,
		Category:      req.Category,
		Description:   req.Description,
		Active:        req.Active,
	})
	if err != nil {
		HandleServiceError(c, err, "UpdateProduct")
		return
	}

	c.JSON(http.StatusOK, productToResponse(product))
}

// ArchiveProduct архивирует товар вместо удаления.
// DELETE /api/v1/products/:id
func (h *ProductHandler) ArchiveProduct(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.productService.ArchiveProduct(ctx, c.Param("id")); err != nil {
		HandleServiceError(c, err, "ArchiveProduct")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Товар архивирован",
	})
}
