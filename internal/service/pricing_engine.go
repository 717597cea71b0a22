package service

import (
	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/shopspring/decimal"
)

// PricingConfig carries the business rules the engine applies: the VAT rate
// for invoices and the category sets governing discount eligibility. An
// excluded category always wins, even if it also appears in the
// discountable set.
type PricingConfig struct {
	VATRate                decimal.Decimal
	DiscountableCategories []string
	ExcludedCategories     []string
}

// DefaultPricingConfig matches the rules the business runs on today:
// 20% VAT on invoices, discounts on the food and cosmetics categories.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		VATRate:                decimal.NewFromFloat(0.20),
		DiscountableCategories: []string{"Alimentaire", "Cosmetique"},
	}
}

// PricingEngine computes order totals. It is deterministic and side-effect
// free: the same lines, reduction and document type always produce the same
// totals, and no I/O happens here.
type PricingEngine struct {
	vatRate      decimal.Decimal
	discountable map[string]struct{}
	excluded     map[string]struct{}
}

func NewPricingEngine(cfg PricingConfig) *PricingEngine {
	e := &PricingEngine{
		vatRate:      cfg.VATRate,
		discountable: make(map[string]struct{}, len(cfg.DiscountableCategories)),
		excluded:     make(map[string]struct{}, len(cfg.ExcludedCategories)),
	}
	for _, c := range cfg.DiscountableCategories {
		e.discountable[c] = struct{}{}
	}
	for _, c := range cfg.ExcludedCategories {
		e.excluded[c] = struct{}{}
	}
	return e
}

// PriceLine is one order line as the engine sees it: the snapshots taken at
// order time, never live catalog data.
type PriceLine struct {
	ArticleID string
	Quantity  int
	UnitPrice decimal.Decimal
	Category  string
}

// PricedLine is the engine's per-line output, rounded for reporting.
type PricedLine struct {
	ArticleID    string          `json:"article_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Category     string          `json:"category"`
	Discountable bool            `json:"discountable"`
	NetUnitPrice decimal.Decimal `json:"net_unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// OrderTotals is a complete quote for a set of lines.
type OrderTotals struct {
	Lines      []PricedLine    `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	VATAmount  decimal.Decimal `json:"vat_amount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Discountable reports whether a category is eligible for the per-order
// reduction. Exclusion beats eligibility.
func (e *PricingEngine) Discountable(category string) bool {
	if _, banned := e.excluded[category]; banned {
		return false
	}
	_, ok := e.discountable[category]
	return ok
}

var (
	hundred    = decimal.NewFromInt(100)
	maxPercent = decimal.NewFromInt(100)
)

// Quote prices the given lines. VAT applies only to invoices; the reduction
// applies only to discountable lines. All arithmetic runs at full precision;
// results are rounded half-up to 2 decimal places once, at this reporting
// boundary.
func (e *PricingEngine) Quote(lines []PriceLine, reductionPercentage decimal.Decimal, documentType string) (OrderTotals, error) {
	if len(lines) == 0 {
		return OrderTotals{}, apperr.New(apperr.KindValidation, "an order requires at least one line")
	}
	if documentType != model.DocTypeInvoice && documentType != model.DocTypeDeliveryNote {
		return OrderTotals{}, apperr.Newf(apperr.KindValidation, "unknown document type %q", documentType)
	}
	if reductionPercentage.IsNegative() || reductionPercentage.GreaterThan(maxPercent) {
		return OrderTotals{}, apperr.New(apperr.KindValidation, "reduction percentage must be between 0 and 100")
	}

	discountFactor := decimal.NewFromInt(1).Sub(reductionPercentage.Div(hundred))

	totals := OrderTotals{Lines: make([]PricedLine, 0, len(lines))}
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return OrderTotals{}, apperr.Newf(apperr.KindValidation, "line quantity must be positive, got %d", line.Quantity)
		}
		if line.UnitPrice.IsNegative() {
			return OrderTotals{}, apperr.New(apperr.KindValidation, "line unit price must not be negative")
		}

		discountable := e.Discountable(line.Category)
		netUnitPrice := line.UnitPrice
		if discountable {
			netUnitPrice = line.UnitPrice.Mul(discountFactor)
		}
		lineTotal := netUnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		totals.Lines = append(totals.Lines, PricedLine{
			ArticleID:    line.ArticleID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Category:     line.Category,
			Discountable: discountable,
			NetUnitPrice: netUnitPrice.Round(2),
			LineTotal:    lineTotal.Round(2),
		})
	}

	vat := decimal.Zero
	if documentType == model.DocTypeInvoice {
		vat = subtotal.Mul(e.vatRate)
	}

	totals.Subtotal = subtotal.Round(2)
	totals.VATAmount = vat.Round(2)
	totals.GrandTotal = subtotal.Add(vat).Round(2)
	return totals, nil
}
