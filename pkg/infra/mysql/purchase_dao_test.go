package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/logger"
)

func newMockDAO(t *testing.T) (*PurchaseDAO, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewPurchaseDAOWithDB(db), mock
}

func TestPurchaseDAO_Record(t *testing.T) {
	dao, mock := newMockDAO(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `purchase_records`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx := logger.WithTraceID(context.Background(), "req-1")
	err := dao.Record(ctx, &model.Order{ID: "ord-1"}, &model.OrchestrationResult{
		OrderID:            "ord-1",
		Success:            true,
		ProviderUsed:       "amazon",
		ProviderOrderID:    "AMZ-1",
		ConfirmationStatus: model.ConfirmationConfirmed,
		TotalCost:          135.10,
		AttemptedProviders: []string{"amazon"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseDAO_RecordInsertError(t *testing.T) {
	dao, mock := newMockDAO(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `purchase_records`").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := dao.Record(context.Background(), nil, &model.OrchestrationResult{OrderID: "ord-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert purchase record")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseDAO_ListByOrder(t *testing.T) {
	dao, mock := newMockDAO(t)

	rows := sqlmock.NewRows([]string{"id", "order_id", "status", "provider_used", "total_cost"}).
		AddRow(2, "ord-1", model.CallbackStatusSuccess, "ebay", 88.5).
		AddRow(1, "ord-1", model.CallbackStatusFailed, "", 0)
	mock.ExpectQuery("SELECT (.+) FROM `purchase_records` WHERE order_id = (.+) ORDER BY id DESC LIMIT (.+)").
		WillReturnRows(rows)

	records, err := dao.ListByOrder(context.Background(), "ord-1", 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(2), records[0].ID)
	assert.Equal(t, "ebay", records[0].ProviderUsed)
	assert.Equal(t, model.CallbackStatusFailed, records[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPurchaseRecord(t *testing.T) {
	ctx := logger.WithTraceID(context.Background(), "trace-9")
	record, err := newPurchaseRecord(ctx, &model.OrchestrationResult{
		OrderID:            "ord-3",
		Error:              "all item purchases failed",
		AttemptedProviders: []string{"amazon", "ebay"},
		FallbackAttempts:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, "trace-9", record.RequestID)
	assert.Equal(t, model.CallbackStatusFailed, record.Status)
	assert.JSONEq(t, `["amazon","ebay"]`, string(record.AttemptedProviders))
	assert.JSONEq(t, `null`, string(record.ItemResults))
	assert.Equal(t, 1, record.FallbackAttempts)
}
