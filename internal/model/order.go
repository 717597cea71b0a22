package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType enum: a tax invoice carries VAT, a delivery note does not.
const (
	DocTypeInvoice      = "INVOICE"
	DocTypeDeliveryNote = "DELIVERY_NOTE"
)

// Order status constants. An order is created SAVED; payments move it to
// PARTIALLY_PAID then PAID; CANCELLED is reachable from any non-PAID state.
const (
	OrderStatusSaved         = "SAVED"
	OrderStatusPartiallyPaid = "PARTIALLY_PAID"
	OrderStatusPaid          = "PAID"
	OrderStatusCancelled     = "CANCELLED"
)

// Order is a customer order. Subtotal, VATAmount and TotalAmount are always
// the pricing engine's output for the current lines — recomputed on every
// mutation, never edited by hand.
type Order struct {
	ID                  uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber         string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_number"`
	CustomerID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer            *Partner        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	DocumentType        string          `gorm:"type:varchar(20);not null" json:"document_type"`
	ReductionPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"reduction_percentage"`
	Lines               []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	Subtotal            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	VATAmount           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"vat_amount"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	AmountPaid          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount_paid"`
	Status              string          `gorm:"type:varchar(20);not null;default:'SAVED';index" json:"status"`
	Archived            bool            `gorm:"default:false;index" json:"archived"`
	// StockConsumed records that the order's exits were issued; saving or
	// editing an order never moves stock by itself.
	StockConsumed bool       `gorm:"default:false" json:"stock_consumed"`
	DueDate       *time.Time `gorm:"type:date" json:"due_date,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RemainingAmount is total − paid. Derived, never stored.
func (o *Order) RemainingAmount() decimal.Decimal {
	return o.TotalAmount.Sub(o.AmountPaid)
}

// OrderLine snapshots quantity, unit price and category at order time, so a
// later catalog price change never retroactively changes the order's value.
type OrderLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ArticleID uuid.UUID       `gorm:"type:uuid;not null;index" json:"article_id"`
	Article   *Article        `gorm:"foreignKey:ArticleID" json:"-"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Category  string          `gorm:"type:varchar(100);not null" json:"category"`
}

// Payment is one received payment applied to an order. Customer-level
// payments are split into per-order rows, oldest order first.
type Payment struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Order      *Order          `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Method     string          `gorm:"type:varchar(50)" json:"method,omitempty"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
}
