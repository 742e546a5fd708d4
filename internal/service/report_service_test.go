package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/testutil"
)

// =====================================
// Тесты Summary
// =====================================

func TestSummary(t *testing.T) {
	t.Run("успешное построение", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		expected := &domain.Summary{
			TotalOrders:   42,
			TotalRevenue:  decimal.RequireFromString("15000.00"),
			TotalDebt:     decimal.RequireFromString("3500.00"),
			TotalClients:  10,
			TotalProducts: 25,
		}
		reports.On("Summary", mock.Anything).Return(expected, nil)

		svc := NewReportService(reports)

		summary, err := svc.Summary(context.Background())

		require.NoError(t, err)
		assert.Equal(t, expected, summary)
		reports.AssertExpectations(t)
	})

	t.Run("ошибка репозитория", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		reports.On("Summary", mock.Anything).Return(nil, errors.New("db down"))

		svc := NewReportService(reports)

		_, err := svc.Summary(context.Background())

		require.Error(t, err)
	})
}

// =====================================
// Тесты RevenueByPeriod
// =====================================

func TestRevenueByPeriod(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	newService := func(reports *testutil.MockReportRepository) *reportService {
		return &reportService{
			reports: reports,
			now:     func() time.Time { return now },
		}
	}

	t.Run("окно считается от текущего момента", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		rows := []domain.RevenueByDay{
			{Date: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), Revenue: decimal.RequireFromString("100.00"), PaymentCount: 1},
			{Date: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), Revenue: decimal.RequireFromString("250.50"), PaymentCount: 3},
		}
		reports.On("RevenueByPeriod", mock.Anything, now.AddDate(0, 0, -7), now).Return(rows, nil)

		svc := newService(reports)

		got, err := svc.RevenueByPeriod(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, rows, got)
		reports.AssertExpectations(t)
	})

	t.Run("days меньше единицы заменяется значением по умолчанию", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		reports.On("RevenueByPeriod", mock.Anything, now.AddDate(0, 0, -defaultRevenueDays), now).
			Return([]domain.RevenueByDay{}, nil)

		svc := newService(reports)

		_, err := svc.RevenueByPeriod(context.Background(), 0)

		require.NoError(t, err)
		reports.AssertExpectations(t)
	})

	t.Run("days обрезается до максимума", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		reports.On("RevenueByPeriod", mock.Anything, now.AddDate(0, 0, -maxRevenueDays), now).
			Return([]domain.RevenueByDay{}, nil)

		svc := newService(reports)

		_, err := svc.RevenueByPeriod(context.Background(), 10000)

		require.NoError(t, err)
		reports.AssertExpectations(t)
	})
}

// =====================================
// Тесты TopClients
// =====================================

func TestTopClients(t *testing.T) {
	t.Run("лимит передаётся в репозиторий", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		rows := []domain.TopClient{
			{ClientID: "client-1", ClientName: "ООО Ромашка", Revenue: decimal.RequireFromString("5000.00"), OrderCount: 4},
			{ClientID: "client-2", ClientName: "ИП Иванов", Revenue: decimal.RequireFromString("1200.00"), OrderCount: 1},
		}
		reports.On("TopClients", mock.Anything, 5).Return(rows, nil)

		svc := NewReportService(reports)

		got, err := svc.TopClients(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, rows, got)
		reports.AssertExpectations(t)
	})

	t.Run("нулевой лимит заменяется значением по умолчанию", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		reports.On("TopClients", mock.Anything, defaultTopLimit).Return([]domain.TopClient{}, nil)

		svc := NewReportService(reports)

		_, err := svc.TopClients(context.Background(), 0)

		require.NoError(t, err)
		reports.AssertExpectations(t)
	})

	t.Run("лимит обрезается до максимума", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		reports.On("TopClients", mock.Anything, maxTopLimit).Return([]domain.TopClient{}, nil)

		svc := NewReportService(reports)

		_, err := svc.TopClients(context.Background(), 100500)

		require.NoError(t, err)
		reports.AssertExpectations(t)
	})
}

// =====================================
// Тесты Debts
// =====================================

func TestDebts(t *testing.T) {
	t.Run("порог передаётся без изменений", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		minDebt := decimal.RequireFromString("500.00")
		rows := []domain.ClientDebt{
			{ClientID: "client-1", ClientName: "ООО Ромашка", TotalDebt: decimal.RequireFromString("1000.00"), OrderCount: 2},
		}
		reports.On("Debts", mock.Anything, minDebt).Return(rows, nil)

		svc := NewReportService(reports)

		got, err := svc.Debts(context.Background(), minDebt)

		require.NoError(t, err)
		assert.Equal(t, rows, got)
		reports.AssertExpectations(t)
	})

	t.Run("отрицательный долг не отбрасывается сервисом", func(t *testing.T) {
		reports := new(testutil.MockReportRepository)

		// Переплата даёт отрицательный долг — фильтрация только порогом.
		rows := []domain.ClientDebt{
			{ClientID: "client-2", ClientName: "ИП Иванов", TotalDebt: decimal.RequireFromString("-150.00"), OrderCount: 1},
		}
		reports.On("Debts", mock.Anything, decimal.RequireFromString("-1000")).Return(rows, nil)

		svc := NewReportService(reports)

		got, err := svc.Debts(context.Background(), decimal.RequireFromString("-1000"))

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].TotalDebt.IsNegative())
	})
}
