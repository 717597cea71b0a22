package service

import (
	"testing"

	"backend/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestQuoteInvoiceWithDiscount(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	lines := []PriceLine{
		{ArticleID: "a1", Quantity: 2, UnitPrice: dec("50.00"), Category: "Alimentaire"},
	}

	totals, err := engine.Quote(lines, dec("30"), "INVOICE")
	require.NoError(t, err)

	require.Len(t, totals.Lines, 1)
	assert.True(t, totals.Lines[0].Discountable)
	assert.Equal(t, "35", totals.Lines[0].NetUnitPrice.String())
	assert.Equal(t, "70", totals.Lines[0].LineTotal.String())
	assert.Equal(t, "70", totals.Subtotal.String())
	assert.Equal(t, "14", totals.VATAmount.String())
	assert.Equal(t, "84", totals.GrandTotal.String())
}

func TestQuoteDeliveryNoteSkipsVAT(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	lines := []PriceLine{
		{ArticleID: "a1", Quantity: 2, UnitPrice: dec("50.00"), Category: "Alimentaire"},
	}

	totals, err := engine.Quote(lines, dec("30"), "DELIVERY_NOTE")
	require.NoError(t, err)

	assert.Equal(t, "70", totals.Subtotal.String())
	assert.True(t, totals.VATAmount.IsZero())
	assert.Equal(t, "70", totals.GrandTotal.String())
}

func TestQuoteNonDiscountableCategoryKeepsFullPrice(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	lines := []PriceLine{
		{ArticleID: "a1", Quantity: 3, UnitPrice: dec("10.00"), Category: "Electronique"},
	}

	totals, err := engine.Quote(lines, dec("50"), "INVOICE")
	require.NoError(t, err)

	assert.False(t, totals.Lines[0].Discountable)
	assert.Equal(t, "10", totals.Lines[0].NetUnitPrice.String())
	assert.Equal(t, "30", totals.Subtotal.String())
	assert.Equal(t, "6", totals.VATAmount.String())
	assert.Equal(t, "36", totals.GrandTotal.String())
}

func TestQuoteExclusionBeatsEligibility(t *testing.T) {
	engine := NewPricingEngine(PricingConfig{
		VATRate:                dec("0.2"),
		DiscountableCategories: []string{"Alimentaire"},
		ExcludedCategories:     []string{"Alimentaire"},
	})

	totals, err := engine.Quote([]PriceLine{
		{ArticleID: "a1", Quantity: 1, UnitPrice: dec("100.00"), Category: "Alimentaire"},
	}, dec("30"), "DELIVERY_NOTE")
	require.NoError(t, err)

	assert.False(t, totals.Lines[0].Discountable)
	assert.Equal(t, "100", totals.Subtotal.String())
}

func TestQuoteMixedLines(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	lines := []PriceLine{
		{ArticleID: "a1", Quantity: 2, UnitPrice: dec("50.00"), Category: "Alimentaire"},
		{ArticleID: "a2", Quantity: 1, UnitPrice: dec("200.00"), Category: "Mecanique"},
	}

	totals, err := engine.Quote(lines, dec("10"), "INVOICE")
	require.NoError(t, err)

	// 2 × 45 + 200 = 290; VAT 58
	assert.Equal(t, "290", totals.Subtotal.String())
	assert.Equal(t, "58", totals.VATAmount.String())
	assert.Equal(t, "348", totals.GrandTotal.String())
}

func TestQuoteRoundsHalfUpAtBoundary(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	// 33.335 × 1 with 0% reduction: subtotal rounds to 33.34 (half up),
	// VAT on the unrounded value is 6.667 → 6.67.
	totals, err := engine.Quote([]PriceLine{
		{ArticleID: "a1", Quantity: 1, UnitPrice: dec("33.335"), Category: "Divers"},
	}, decimal.Zero, "INVOICE")
	require.NoError(t, err)

	assert.Equal(t, "33.34", totals.Subtotal.String())
	assert.Equal(t, "6.67", totals.VATAmount.String())
	assert.Equal(t, "40", totals.GrandTotal.String())
}

func TestQuoteZeroReduction(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	totals, err := engine.Quote([]PriceLine{
		{ArticleID: "a1", Quantity: 4, UnitPrice: dec("25.00"), Category: "Alimentaire"},
	}, decimal.Zero, "DELIVERY_NOTE")
	require.NoError(t, err)

	assert.True(t, totals.Lines[0].Discountable)
	assert.Equal(t, "25", totals.Lines[0].NetUnitPrice.String())
	assert.Equal(t, "100", totals.Subtotal.String())
}

func TestQuoteHundredPercentReduction(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	totals, err := engine.Quote([]PriceLine{
		{ArticleID: "a1", Quantity: 2, UnitPrice: dec("50.00"), Category: "Cosmetique"},
	}, dec("100"), "INVOICE")
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestQuoteValidation(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())
	good := []PriceLine{{ArticleID: "a1", Quantity: 1, UnitPrice: dec("10"), Category: "Divers"}}

	tests := []struct {
		name      string
		lines     []PriceLine
		reduction decimal.Decimal
		docType   string
	}{
		{"no lines", nil, decimal.Zero, "INVOICE"},
		{"bad document type", good, decimal.Zero, "QUOTE"},
		{"negative reduction", good, dec("-1"), "INVOICE"},
		{"reduction above 100", good, dec("101"), "INVOICE"},
		{"zero quantity line", []PriceLine{{ArticleID: "a1", Quantity: 0, UnitPrice: dec("10"), Category: "Divers"}}, decimal.Zero, "INVOICE"},
		{"negative price line", []PriceLine{{ArticleID: "a1", Quantity: 1, UnitPrice: dec("-5"), Category: "Divers"}}, decimal.Zero, "INVOICE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Quote(tt.lines, tt.reduction, tt.docType)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}
}
