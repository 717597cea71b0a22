package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/cache"
	"backend/internal/repository"

	"go.uber.org/zap"
)

const reportCacheTTL = time.Minute

// TodayReport summarizes movement activity since midnight.
type TodayReport struct {
	Date          string `json:"date"`
	EntryCount    int64  `json:"entry_count"`
	ExitCount     int64  `json:"exit_count"`
	EntryQuantity int64  `json:"entry_quantity"`
	ExitQuantity  int64  `json:"exit_quantity"`
	EntryValue    string `json:"entry_value"`
}

type ReportService interface {
	Today(ctx context.Context) (TodayReport, error)
	TopConsumed(ctx context.Context, days, limit int) ([]repository.ArticleConsumption, error)
	SupplierTotals(ctx context.Context, days int) ([]repository.SupplierTotal, error)
	StockValueByCategory(ctx context.Context) ([]repository.CategoryValue, error)
}

// reportService answers aggregate queries cache-aside: a cache failure is
// logged and the database answers instead.
type reportService struct {
	reportRepo repository.ReportRepository
	cache      cache.Cache
	logger     *zap.Logger
}

func NewReportService(reportRepo repository.ReportRepository, c cache.Cache, logger *zap.Logger) ReportService {
	return &reportService{reportRepo: reportRepo, cache: c, logger: logger}
}

func (s *reportService) Today(ctx context.Context) (TodayReport, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	key := "report:today:" + midnight.Format("2006-01-02")

	var report TodayReport
	if err := s.cache.Get(ctx, key, &report); err == nil {
		return report, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}

	counters, err := s.reportRepo.MovementCounters(ctx, midnight, now)
	if err != nil {
		return TodayReport{}, fmt.Errorf("failed to build today's report: %w", err)
	}
	report = TodayReport{
		Date:          midnight.Format("2006-01-02"),
		EntryCount:    counters.EntryCount,
		ExitCount:     counters.ExitCount,
		EntryQuantity: counters.EntryQuantity,
		ExitQuantity:  counters.ExitQuantity,
		EntryValue:    counters.EntryValue,
	}
	if err := s.cache.Set(ctx, key, report, reportCacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return report, nil
}

func (s *reportService) TopConsumed(ctx context.Context, days, limit int) ([]repository.ArticleConsumption, error) {
	if days <= 0 {
		days = 30
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	key := fmt.Sprintf("report:top-consumed:%d:%d", days, limit)

	var rankings []repository.ArticleConsumption
	if err := s.cache.Get(ctx, key, &rankings); err == nil {
		return rankings, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	rankings, err := s.reportRepo.TopConsumed(ctx, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank consumed articles: %w", err)
	}
	if err := s.cache.Set(ctx, key, rankings, reportCacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rankings, nil
}

func (s *reportService) SupplierTotals(ctx context.Context, days int) ([]repository.SupplierTotal, error) {
	if days <= 0 {
		days = 30
	}
	key := fmt.Sprintf("report:supplier-totals:%d", days)

	var totals []repository.SupplierTotal
	if err := s.cache.Get(ctx, key, &totals); err == nil {
		return totals, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	totals, err := s.reportRepo.SupplierTotals(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to total supplier deliveries: %w", err)
	}
	if err := s.cache.Set(ctx, key, totals, reportCacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return totals, nil
}

func (s *reportService) StockValueByCategory(ctx context.Context) ([]repository.CategoryValue, error) {
	const key = "report:stock-value-by-category"

	var values []repository.CategoryValue
	if err := s.cache.Get(ctx, key, &values); err == nil {
		return values, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}

	values, err := s.reportRepo.StockValueByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to value stock by category: %w", err)
	}
	if err := s.cache.Set(ctx, key, values, reportCacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return values, nil
}
