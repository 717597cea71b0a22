package service

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name     string
		qty      int
		min      int
		max      int
		expected string
	}{
		{"zero quantity is empty", 0, 10, 100, model.StockStatusEmpty},
		{"empty beats thresholds", 0, 0, 0, model.StockStatusEmpty},
		{"half the minimum is critical", 5, 10, 100, model.StockStatusCritical},
		{"below half the minimum is critical", 3, 10, 100, model.StockStatusCritical},
		{"at minimum is low", 10, 10, 100, model.StockStatusLow},
		{"between half and minimum is low", 6, 10, 100, model.StockStatusLow},
		{"just above half is low", 7, 12, 100, model.StockStatusLow},
		{"above minimum below maximum is normal", 50, 10, 100, model.StockStatusNormal},
		{"at maximum is excessive", 100, 10, 100, model.StockStatusExcessive},
		{"above maximum is excessive", 150, 10, 100, model.StockStatusExcessive},
		{"zero maximum disables excessive", 1000000, 10, 0, model.StockStatusNormal},
		{"no thresholds set", 1, 0, 0, model.StockStatusNormal},
		{"critical wins over excessive when ranges overlap", 5, 10, 5, model.StockStatusCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyStock(tt.qty, tt.min, tt.max))
		})
	}
}

// Draining stock from the minimum down to zero must walk LOW, CRITICAL,
// EMPTY in order, never jumping back to a healthier status.
func TestClassifyStockDrainNeverRecovers(t *testing.T) {
	rank := map[string]int{
		model.StockStatusNormal:   3,
		model.StockStatusLow:      2,
		model.StockStatusCritical: 1,
		model.StockStatusEmpty:    0,
	}

	const min = 20
	prev := rank[ClassifyStock(min+1, min, 0)]
	for qty := min; qty >= 0; qty-- {
		cur := rank[ClassifyStock(qty, min, 0)]
		assert.LessOrEqual(t, cur, prev, "qty %d regressed to a healthier status", qty)
		prev = cur
	}
}
