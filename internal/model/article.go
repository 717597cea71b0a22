package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockStatus values, ordered from least to most healthy up to NORMAL;
// EXCESSIVE sits above the configured maximum.
const (
	StockStatusEmpty     = "EMPTY"
	StockStatusCritical  = "CRITICAL"
	StockStatusLow       = "LOW"
	StockStatusNormal    = "NORMAL"
	StockStatusExcessive = "EXCESSIVE"
)

// Article is catalog reference data the engine consults. The engine never
// owns its lifecycle; only the reorder thresholds are expected to change
// between movements.
type Article struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Category  string          `gorm:"type:varchar(100);not null;index" json:"category"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	StockMin  int             `gorm:"type:int;not null;default:0" json:"stock_min"`
	StockMax  int             `gorm:"type:int;not null;default:0" json:"stock_max"`
	Active    bool            `gorm:"default:true" json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Stock is the derived valuation state of one article: quantity on hand and
// the weighted average cost of that quantity. Mutated only by the stock
// service, always together with an appended StockMovement. A zero-quantity
// row persists; rows are never deleted.
type Stock struct {
	ID                   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ArticleID            uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"article_id"`
	Article              *Article        `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
	QuantityOnHand       int             `gorm:"type:int;not null;default:0" json:"quantity_on_hand"`
	WeightedAveragePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"weighted_average_price"`
	// NeedsReconciliation marks an article whose average could not be
	// restored after an entry reversal and requires manual review.
	NeedsReconciliation bool      `gorm:"default:false" json:"needs_reconciliation"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TotalValue is quantity × weighted average. Derived, never stored.
func (s *Stock) TotalValue() decimal.Decimal {
	return s.WeightedAveragePrice.Mul(decimal.NewFromInt(int64(s.QuantityOnHand)))
}

// MovementType enum
const (
	MovementEntry = "ENTRY"
	MovementExit  = "EXIT"
)

// StockMovement is the append-only audit log of stock changes. Rows are
// immutable; undoing a movement appends a compensating movement with
// IsReversal set instead of touching history.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ArticleID uuid.UUID `gorm:"type:uuid;not null;index" json:"article_id"`
	Article   *Article  `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
	Type      string    `gorm:"type:varchar(10);not null" json:"type"` // ENTRY, EXIT
	Quantity  int       `gorm:"type:int;not null" json:"quantity"`
	// UnitPrice is set for entries (the receipt cost); exits consume at the
	// current average and carry no price of their own.
	UnitPrice *decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_price,omitempty"`
	// PartnerID is the supplier for an entry, the customer for an exit.
	PartnerID      *uuid.UUID `gorm:"type:uuid;index" json:"partner_id,omitempty"`
	Partner        *Partner   `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	DeliveryNoteNo string     `gorm:"type:varchar(100)" json:"delivery_note_no,omitempty"`
	InvoiceNo      string     `gorm:"type:varchar(100)" json:"invoice_no,omitempty"`
	QuantityBefore int        `gorm:"type:int;not null" json:"quantity_before"`
	QuantityAfter  int        `gorm:"type:int;not null" json:"quantity_after"`
	IsReversal     bool       `gorm:"default:false" json:"is_reversal"`
	ReversalOfID   *uuid.UUID `gorm:"type:uuid;index" json:"reversal_of_id,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}
