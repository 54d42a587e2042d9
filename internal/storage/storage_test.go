package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/pkg/types"
)

func newMockStorage(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return &PostgresStorage{db: db, logger: zap.NewNop()}, mock
}

func sampleRecord() *TradeRecord {
	return &TradeRecord{
		TradeID:           "trade-1",
		MarketName:        "test-market",
		Kind:              "binary_complement",
		DetectedAt:        time.Now().Add(-time.Second),
		ExecutedAt:        time.Now(),
		PriceSum:          0.98,
		AllInCost:         0.98,
		ExpectedProfitBps: 200,
		SizeShares:        100,
		Status:            types.TradeFilled,
		PnLUSD:            2.0,
	}
}

func TestInsertTrade(t *testing.T) {
	store, mock := newMockStorage(t)
	rec := sampleRecord()

	mock.ExpectExec("INSERT INTO trades").
		WithArgs(rec.TradeID, rec.MarketName, rec.Kind, rec.DetectedAt, rec.ExecutedAt,
			rec.PriceSum, rec.AllInCost, rec.ExpectedProfitBps, rec.SizeShares,
			string(rec.Status), rec.PnLUSD).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.InsertTrade(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Conflicting trade id resolves to a no-op insert, not an error.
func TestInsertTradeIdempotent(t *testing.T) {
	store, mock := newMockStorage(t)
	rec := sampleRecord()

	mock.ExpectExec("INSERT INTO trades").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.InsertTrade(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTradeStatus(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectExec("UPDATE trades SET").
		WithArgs("trade-1", string(types.TradeHedged), -7.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateTradeStatus(context.Background(), "trade-1", types.TradeHedged, -7.0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveConfigSnapshot(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectExec("INSERT INTO config_snapshots").
		WithArgs([]byte(`{"mode":"dry"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.SaveConfigSnapshot(context.Background(), []byte(`{"mode":"dry"}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsoleStorage(t *testing.T) {
	store := NewConsoleStorage(zap.NewNop())

	require.NoError(t, store.InsertTrade(context.Background(), sampleRecord()))
	require.NoError(t, store.UpdateTradeStatus(context.Background(), "trade-1", types.TradeFailed, -1))
	require.NoError(t, store.SaveConfigSnapshot(context.Background(), []byte("{}")))
	require.NoError(t, store.Close())
}
