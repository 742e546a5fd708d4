package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/crm-backend/internal/domain"
)

// ReportRepository определяет интерфейс для отчётных выборок.
// Все запросы читают текущее состояние без кэширования.
type ReportRepository interface {
	// Summary возвращает сводные показатели по всей системе.
	Summary(ctx context.Context) (*domain.Summary, error)

	// RevenueByPeriod возвращает выручку по календарным дням (UTC)
	// в интервале [from, to]. Дни без проведённых платежей опускаются.
	RevenueByPeriod(ctx context.Context, from, to time.Time) ([]domain.RevenueByDay, error)

	// TopClients возвращает клиентов по убыванию выручки проведённых
	// платежей, не более limit строк.
	TopClients(ctx context.Context, limit int) ([]domain.TopClient, error)

	// Debts возвращает клиентов с долгом строго больше minDebt
	// по убыванию долга.
	Debts(ctx context.Context, minDebt decimal.Decimal) ([]domain.ClientDebt, error)
}

// reportRepository — GORM реализация ReportRepository.
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository создаёт новый репозиторий отчётов.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Summary возвращает сводные показатели по всей системе.
// Общий долг обрезается до нуля — только на этом уровне.
func (r *reportRepository) Summary(ctx context.Context) (*domain.Summary, error) {
	db := r.db.WithContext(ctx)
	summary := &domain.Summary{}

	if err := db.Model(&OrderModel{}).Count(&summary.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&ClientModel{}).Count(&summary.TotalClients).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&ProductModel{}).
		Where("active = ?", true).
		Count(&summary.TotalProducts).Error; err != nil {
		return nil, err
	}

	var revenue decimal.Decimal
	err := db.Model(&PaymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", string(domain.PaymentStatusCompleted)).
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	summary.TotalRevenue = revenue

	var ordersTotal decimal.Decimal
	err = db.Model(&OrderModel{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&ordersTotal).Error
	if err != nil {
		return nil, err
	}

	debt := ordersTotal.Sub(revenue)
	if debt.IsNegative() {
		debt = decimal.Zero
	}
	summary.TotalDebt = debt

	return summary, nil
}

// revenueRow — строка агрегации выручки по дням.
type revenueRow struct {
	Day          time.Time       `gorm:"column:day"`
	Revenue      decimal.Decimal `gorm:"column:revenue"`
	PaymentCount int64           `gorm:"column:payment_count"`
}

// RevenueByPeriod возвращает выручку по календарным дням (UTC).
func (r *reportRepository) RevenueByPeriod(ctx context.Context, from, to time.Time) ([]domain.RevenueByDay, error) {
	var rows []revenueRow

	err := r.db.WithContext(ctx).Raw(`
		SELECT DATE(payment_date) AS day,
		       SUM(amount) AS revenue,
		       COUNT(*) AS payment_count
		FROM payments
		WHERE status = ? AND payment_date >= ? AND payment_date <= ?
		GROUP BY DATE(payment_date)
		ORDER BY day ASC`,
		string(domain.PaymentStatusCompleted), from, to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]domain.RevenueByDay, len(rows))
	for i, row := range rows {
		result[i] = domain.RevenueByDay{
			Date:         row.Day,
			Revenue:      row.Revenue,
			PaymentCount: row.PaymentCount,
		}
	}
	return result, nil
}

// topClientRow — строка агрегации выручки по клиентам.
type topClientRow struct {
	ClientID   string          `gorm:"column:client_id"`
	ClientName string          `gorm:"column:client_name"`
	Revenue    decimal.Decimal `gorm:"column:revenue"`
	OrderCount int64           `gorm:"column:order_count"`
}

// TopClients возвращает клиентов по убыванию выручки.
// Клиенты без проведённых платежей в отчёт не попадают.
func (r *reportRepository) TopClients(ctx context.Context, limit int) ([]domain.TopClient, error) {
	var rows []topClientRow

	err := r.db.WithContext(ctx).Raw(`
		SELECT c.id AS client_id,
		       c.name AS client_name,
		       SUM(p.amount) AS revenue,
		       COUNT(DISTINCT o.id) AS order_count
		FROM clients c
		JOIN orders o ON o.client_id = c.id
		JOIN payments p ON p.order_id = o.id AND p.status = ?
		GROUP BY c.id, c.name
		ORDER BY revenue DESC
		LIMIT ?`,
		string(domain.PaymentStatusCompleted), limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]domain.TopClient, len(rows))
	for i, row := range rows {
		result[i] = domain.TopClient{
			ClientID:   row.ClientID,
			ClientName: row.ClientName,
			Revenue:    row.Revenue,
			OrderCount: row.OrderCount,
		}
	}
	return result, nil
}

// clientDebtRow — строка агрегации долгов по клиентам.
type clientDebtRow struct {
	ClientID   string          `gorm:"column:client_id"`
	ClientName string          `gorm:"column:client_name"`
	Phone      string          `gorm:"column:phone"`
	TotalDebt  decimal.Decimal `gorm:"column:total_debt"`
	OrderCount int64           `gorm:"column:order_count"`
}

// Debts возвращает клиентов с долгом строго больше minDebt.
// Долг клиента не обрезается до нуля — фильтрует только порог.
// Платежи агрегируются в подзапросе, иначе JOIN задублировал бы
// суммы заказов.
func (r *reportRepository) Debts(ctx context.Context, minDebt decimal.Decimal) ([]domain.ClientDebt, error) {
	var rows []clientDebtRow

	err := r.db.WithContext(ctx).Raw(`
		SELECT c.id AS client_id,
		       c.name AS client_name,
		       c.phone AS phone,
		       ord.total_sum - COALESCE(pay.paid_sum, 0) AS total_debt,
		       ord.order_count AS order_count
		FROM clients c
		JOIN (
			SELECT client_id, SUM(total_amount) AS total_sum, COUNT(*) AS order_count
			FROM orders
			GROUP BY client_id
		) ord ON ord.client_id = c.id
		LEFT JOIN (
			SELECT o.client_id, SUM(p.amount) AS paid_sum
			FROM payments p
			JOIN orders o ON o.id = p.order_id
			WHERE p.status = ?
			GROUP BY o.client_id
		) pay ON pay.client_id = c.id
		WHERE ord.total_sum - COALESCE(pay.paid_sum, 0) > ?
		ORDER BY total_debt DESC`,
		string(domain.PaymentStatusCompleted), minDebt,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]domain.ClientDebt, len(rows))
	for i, row := range rows {
		result[i] = domain.ClientDebt{
			ClientID:   row.ClientID,
			ClientName: row.ClientName,
			Phone:      row.Phone,
			TotalDebt:  row.TotalDebt,
			OrderCount: row.OrderCount,
		}
	}
	return result, nil
}
