package mysql

import (
	"time"

	"gorm.io/datatypes"
)

// PurchaseRecord is one orchestration outcome in the audit trail
type PurchaseRecord struct {
	ID                 uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID            string         `gorm:"column:order_id;type:varchar(64);not null;index:idx_order_created"`
	RequestID          string         `gorm:"column:request_id;type:varchar(64)"`
	Status             string         `gorm:"column:status;type:varchar(16);not null"`
	ProviderUsed       string         `gorm:"column:provider_used;type:varchar(32)"`
	ProviderOrderID    string         `gorm:"column:provider_order_id;type:varchar(64)"`
	ConfirmationStatus string         `gorm:"column:confirmation_status;type:varchar(16)"`
	TotalCost          float64        `gorm:"column:total_cost;type:decimal(12,2)"`
	FallbackAttempts   int            `gorm:"column:fallback_attempts"`
	AttemptedProviders datatypes.JSON `gorm:"column:attempted_providers;type:json"`
	ItemResults        datatypes.JSON `gorm:"column:item_results;type:json"`
	ErrorMessage       string         `gorm:"column:error_message;type:text"`
	ProcessingTimeMs   int64          `gorm:"column:processing_time_ms"`
	CreatedAt          time.Time      `gorm:"column:created_at;not null;index:idx_order_created"`
}

// TableName pins the table name
func (PurchaseRecord) TableName() string {
	return "purchase_records"
}
