package service

import "backend/internal/model"

// ClassifyStock maps a stock snapshot and the article's thresholds to a
// health status. Pure function, checked in priority order:
//
//	EMPTY     quantity is zero
//	CRITICAL  quantity at or below half the minimum
//	LOW       quantity at or below the minimum
//	EXCESSIVE quantity at or above the maximum (only when a maximum is set)
//	NORMAL    everything else
//
// With stockMin = stockMax = 0 every non-empty quantity is NORMAL.
func ClassifyStock(quantityOnHand, stockMin, stockMax int) string {
	switch {
	case quantityOnHand <= 0:
		return model.StockStatusEmpty
	case 2*quantityOnHand <= stockMin:
		return model.StockStatusCritical
	case quantityOnHand <= stockMin:
		return model.StockStatusLow
	case stockMax > 0 && quantityOnHand >= stockMax:
		return model.StockStatusExcessive
	default:
		return model.StockStatusNormal
	}
}
