package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary — сводный отчёт по всей системе.
// TotalDebt обрезается до нуля при переплате — в отличие от
// долга отдельного заказа или клиента.
type Summary struct {
	TotalOrders   int64
	TotalRevenue  decimal.Decimal
	TotalDebt     decimal.Decimal
	TotalClients  int64
	TotalProducts int64
}

// RevenueByDay — выручка за один календарный день (UTC).
// Дни без проведённых платежей в отчёт не попадают.
type RevenueByDay struct {
	Date         time.Time
	Revenue      decimal.Decimal
	PaymentCount int64
}

// TopClient — строка отчёта по лучшим клиентам: суммарная выручка
// по проведённым платежам и число заказов с такими платежами.
type TopClient struct {
	ClientID   string
	ClientName string
	Revenue    decimal.Decimal
	OrderCount int64
}

// ClientDebt — долг клиента: сумма заказов минус проведённые платежи.
// Может быть отрицательным при переплате, фильтруется только порогом.
type ClientDebt struct {
	ClientID   string
	ClientName string
	Phone      string
	TotalDebt  decimal.Decimal
	OrderCount int64
}
