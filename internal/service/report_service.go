package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/repository"
	"example.com/crm-backend/pkg/logger"
)

// Границы параметров отчётов.
const (
	defaultRevenueDays = 30
	maxRevenueDays     = 365
	defaultTopLimit    = 10
	maxTopLimit        = 100
)

// ReportService определяет интерфейс отчётов.
// Отчёты считаются по текущему состоянию при каждом вызове.
type ReportService interface {
	// Summary возвращает сводные показатели по всей системе.
	Summary(ctx context.Context) (*domain.Summary, error)

	// RevenueByPeriod возвращает выручку по дням за последние days дней.
	RevenueByPeriod(ctx context.Context, days int) ([]domain.RevenueByDay, error)

	// TopClients возвращает до limit клиентов по убыванию выручки.
	TopClients(ctx context.Context, limit int) ([]domain.TopClient, error)

	// Debts возвращает клиентов с долгом строго больше minDebt.
	Debts(ctx context.Context, minDebt decimal.Decimal) ([]domain.ClientDebt, error)
}

// reportService — реализация ReportService.
type reportService struct {
	reports repository.ReportRepository
	now     func() time.Time
}

// NewReportService создаёт новый сервис отчётов.
func NewReportService(reports repository.ReportRepository) ReportService {
	return &reportService{
		reports: reports,
		now:     time.Now,
	}
}

// Summary возвращает сводные показатели по всей системе.
func (s *reportService) Summary(ctx context.Context) (*domain.Summary, error) {
	log := logger.FromContext(ctx)

	summary, err := s.reports.Summary(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка построения сводного отчёта")
		return nil, fmt.Errorf("сводный отчёт: %w", err)
	}

	return summary, nil
}

// RevenueByPeriod возвращает выручку по дням за скользящее окно
// [now-days, now] в UTC.
func (s *reportService) RevenueByPeriod(ctx context.Context, days int) ([]domain.RevenueByDay, error) {
	log := logger.FromContext(ctx)

	if days < 1 {
		days = defaultRevenueDays
	}
	if days > maxRevenueDays {
		days = maxRevenueDays
	}

	to := s.now().UTC()
	from := to.AddDate(0, 0, -days)

	rows, err := s.reports.RevenueByPeriod(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Int("days", days).Msg("Ошибка построения отчёта по выручке")
		return nil, fmt.Errorf("отчёт по выручке: %w", err)
	}

	return rows, nil
}

// TopClients возвращает клиентов по убыванию выручки.
func (s *reportService) TopClients(ctx context.Context, limit int) ([]domain.TopClient, error) {
	log := logger.FromContext(ctx)

	if limit < 1 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	rows, err := s.reports.TopClients(ctx, limit)
	if err != nil {
		log.Error().Err(err).Int("limit", limit).Msg("Ошибка построения отчёта по клиентам")
		return nil, fmt.Errorf("отчёт по клиентам: %w", err)
	}

	return rows, nil
}

// Debts возвращает клиентов с долгом строго больше minDebt.
func (s *reportService) Debts(ctx context.Context, minDebt decimal.Decimal) ([]domain.ClientDebt, error) {
	log := logger.FromContext(ctx)

	rows, err := s.reports.Debts(ctx, minDebt)
	if err != nil {
		log.Error().Err(err).Str("min_debt", minDebt.String()).Msg("Ошибка построения отчёта по долгам")
		return nil, fmt.Errorf("отчёт по долгам: %w", err)
	}

	return rows, nil
}
