package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

// ArticleConsumption ranks an article by exit volume over a period.
type ArticleConsumption struct {
	ArticleID     string `json:"article_id"`
	ArticleCode   string `json:"article_code"`
	ArticleName   string `json:"article_name"`
	TotalQuantity int64  `json:"total_quantity"`
	TotalValue    string `json:"total_value"`
}

// SupplierTotal aggregates received stock value per supplier.
type SupplierTotal struct {
	PartnerID     string `json:"partner_id"`
	PartnerName   string `json:"partner_name"`
	EntryCount    int64  `json:"entry_count"`
	TotalQuantity int64  `json:"total_quantity"`
	TotalValue    string `json:"total_value"`
}

// CategoryValue is the current stock valuation of one article category.
type CategoryValue struct {
	Category      string `json:"category"`
	ArticleCount  int64  `json:"article_count"`
	TotalQuantity int64  `json:"total_quantity"`
	TotalValue    string `json:"total_value"`
}

// MovementCounters summarizes movement activity over a window.
type MovementCounters struct {
	EntryCount    int64  `json:"entry_count"`
	ExitCount     int64  `json:"exit_count"`
	EntryQuantity int64  `json:"entry_quantity"`
	ExitQuantity  int64  `json:"exit_quantity"`
	EntryValue    string `json:"entry_value"`
}

type ReportRepository interface {
	MovementCounters(ctx context.Context, start, end time.Time) (MovementCounters, error)
	TopConsumed(ctx context.Context, start, end time.Time, limit int) ([]ArticleConsumption, error)
	SupplierTotals(ctx context.Context, start, end time.Time) ([]SupplierTotal, error)
	StockValueByCategory(ctx context.Context) ([]CategoryValue, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Sums are cast to text so decimal values survive the scan without passing
// through float64.
func (r *reportRepository) MovementCounters(ctx context.Context, start, end time.Time) (MovementCounters, error) {
	var result struct {
		EntryCount    int64
		ExitCount     int64
		EntryQuantity int64
		ExitQuantity  int64
		EntryValue    string
	}
	err := GetDB(ctx, r.db).Table("stock_movements").
		Select(`
			COUNT(*) FILTER (WHERE type = ?) as entry_count,
			COUNT(*) FILTER (WHERE type = ?) as exit_count,
			COALESCE(SUM(quantity) FILTER (WHERE type = ?), 0) as entry_quantity,
			COALESCE(SUM(quantity) FILTER (WHERE type = ?), 0) as exit_quantity,
			COALESCE(CAST(SUM(quantity * unit_price) FILTER (WHERE type = ?) AS TEXT), '0') as entry_value`,
			model.MovementEntry, model.MovementExit, model.MovementEntry, model.MovementExit, model.MovementEntry).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Scan(&result).Error
	if err != nil {
		return MovementCounters{}, fmt.Errorf("failed to query movement counters: %w", err)
	}
	return MovementCounters{
		EntryCount:    result.EntryCount,
		ExitCount:     result.ExitCount,
		EntryQuantity: result.EntryQuantity,
		ExitQuantity:  result.ExitQuantity,
		EntryValue:    result.EntryValue,
	}, nil
}

func (r *reportRepository) TopConsumed(ctx context.Context, start, end time.Time, limit int) ([]ArticleConsumption, error) {
	var rankings []ArticleConsumption
	if err := GetDB(ctx, r.db).Table("stock_movements").
		Select(`articles.id as article_id, articles.code as article_code, articles.name as article_name,
			SUM(stock_movements.quantity) as total_quantity,
			COALESCE(CAST(SUM(stock_movements.quantity * stocks.weighted_average_price) AS TEXT), '0') as total_value`).
		Joins("JOIN articles ON articles.id = stock_movements.article_id").
		Joins("JOIN stocks ON stocks.article_id = articles.id").
		Where("stock_movements.type = ? AND stock_movements.is_reversal = false AND stock_movements.created_at >= ? AND stock_movements.created_at <= ?",
			model.MovementExit, start, end).
		Group("articles.id, articles.code, articles.name").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top consumed articles: %w", err)
	}
	return rankings, nil
}

func (r *reportRepository) SupplierTotals(ctx context.Context, start, end time.Time) ([]SupplierTotal, error) {
	var totals []SupplierTotal
	if err := GetDB(ctx, r.db).Table("stock_movements").
		Select(`partners.id as partner_id, partners.name as partner_name,
			COUNT(*) as entry_count,
			SUM(stock_movements.quantity) as total_quantity,
			COALESCE(CAST(SUM(stock_movements.quantity * stock_movements.unit_price) AS TEXT), '0') as total_value`).
		Joins("JOIN partners ON partners.id = stock_movements.partner_id").
		Where("stock_movements.type = ? AND stock_movements.is_reversal = false AND stock_movements.created_at >= ? AND stock_movements.created_at <= ?",
			model.MovementEntry, start, end).
		Group("partners.id, partners.name").
		Order("total_value DESC").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to query supplier totals: %w", err)
	}
	return totals, nil
}

func (r *reportRepository) StockValueByCategory(ctx context.Context) ([]CategoryValue, error) {
	var values []CategoryValue
	if err := GetDB(ctx, r.db).Table("stocks").
		Select(`articles.category as category,
			COUNT(*) as article_count,
			SUM(stocks.quantity_on_hand) as total_quantity,
			COALESCE(CAST(SUM(stocks.quantity_on_hand * stocks.weighted_average_price) AS TEXT), '0') as total_value`).
		Joins("JOIN articles ON articles.id = stocks.article_id").
		Group("articles.category").
		Order("total_value DESC").
		Scan(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to query stock value by category: %w", err)
	}
	return values, nil
}
