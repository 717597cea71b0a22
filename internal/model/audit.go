package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionRecordEntry     = "RECORD_STOCK_ENTRY"
	ActionRecordExit      = "RECORD_STOCK_EXIT"
	ActionReverseMovement = "REVERSE_STOCK_MOVEMENT"

	ActionCreateArticle = "CREATE_ARTICLE"
	ActionUpdateArticle = "UPDATE_ARTICLE"

	ActionSaveOrder         = "SAVE_ORDER"
	ActionUpdateOrder       = "UPDATE_ORDER"
	ActionCancelOrder       = "CANCEL_ORDER"
	ActionConfirmOrderStock = "CONFIRM_ORDER_STOCK"
	ActionRecordPayment     = "RECORD_PAYMENT"
	ActionArchiveOrders     = "ARCHIVE_ORDERS"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
