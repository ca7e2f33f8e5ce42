package mysql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/logger"
)

// PurchaseDAO writes and reads the purchase audit trail
type PurchaseDAO struct {
	db *gorm.DB
}

// NewPurchaseDAO opens the MySQL database at dsn
func NewPurchaseDAO(dsn string) (*PurchaseDAO, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewPurchaseDAOWithDB(db), nil
}

// NewPurchaseDAOWithDB wraps an open gorm handle
func NewPurchaseDAOWithDB(db *gorm.DB) *PurchaseDAO {
	return &PurchaseDAO{db: db}
}

// AutoMigrate creates or updates the audit table
func (dao *PurchaseDAO) AutoMigrate() error {
	return dao.db.AutoMigrate(&PurchaseRecord{})
}

// Record stores the outcome of one orchestration
func (dao *PurchaseDAO) Record(ctx context.Context, order *model.Order, result *model.OrchestrationResult) error {
	record, err := newPurchaseRecord(ctx, result)
	if err != nil {
		return err
	}

	if err := dao.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert purchase record: %w", err)
	}
	return nil
}

func newPurchaseRecord(ctx context.Context, result *model.OrchestrationResult) (*PurchaseRecord, error) {
	attempted, err := json.Marshal(result.AttemptedProviders)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attempted providers: %w", err)
	}
	items, err := json.Marshal(result.ItemResults)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item results: %w", err)
	}

	status := model.CallbackStatusFailed
	if result.Success {
		status = model.CallbackStatusSuccess
	}
	requestID, _ := ctx.Value(logger.KeyTraceID).(string)

	return &PurchaseRecord{
		OrderID:            result.OrderID,
		RequestID:          requestID,
		Status:             status,
		ProviderUsed:       result.ProviderUsed,
		ProviderOrderID:    result.ProviderOrderID,
		ConfirmationStatus: string(result.ConfirmationStatus),
		TotalCost:          result.TotalCost,
		FallbackAttempts:   result.FallbackAttempts,
		AttemptedProviders: attempted,
		ItemResults:        items,
		ErrorMessage:       result.Error,
		ProcessingTimeMs:   result.ProcessingTimeMs,
		CreatedAt:          time.Now(),
	}, nil
}

// ListByOrder returns the newest records of orderID first
func (dao *PurchaseDAO) ListByOrder(ctx context.Context, orderID string, limit int) ([]PurchaseRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []PurchaseRecord
	result := dao.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list purchase records: %w", result.Error)
	}
	return records, nil
}

// Close closes the database connection
func (dao *PurchaseDAO) Close() error {
	sqlDB, err := dao.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
