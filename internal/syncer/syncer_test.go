package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/subsync/internal/categorizer"
	"fjacquet/subsync/internal/detector"
	"fjacquet/subsync/internal/icon"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
	"fjacquet/subsync/internal/reconcile"
	"fjacquet/subsync/internal/store"
	"fjacquet/subsync/internal/syncerror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(providerID, merchantName, amount string, day int) models.Transaction {
	return models.Transaction{
		ID:           "id-" + providerID,
		ProviderID:   providerID,
		MerchantName: merchantName,
		Amount:       decimal.RequireFromString(amount),
		Date:         time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

func newService(s store.SubscriptionStore, logger logging.Logger) *Service {
	d := detector.New(categorizer.NewClassifier(nil, logger), icon.NewResolver(models.IconsConfig{}), logger, detector.WithWorkers(2))
	e := reconcile.NewEngine(s, logger, reconcile.WithWorkers(2))
	return NewService(d, e, logger)
}

func gymBatch() []models.Transaction {
	return []models.Transaction{
		tx("p-g1", "Acme Gym", "45.00", 3),
		tx("p-g2", "Acme Gym", "45.00", 10),
		tx("p-g3", "Acme Gym", "47.00", 17),
		tx("p-o1", "OneOff Store", "12.00", 5),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	s := store.NewMemoryStore()
	result, err := newService(s, logging.NewMockLogger()).Run(context.Background(), "user-1", gymBatch())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Transactions)
	assert.Equal(t, 1, result.Detected)
	require.Len(t, result.Created, 1)
	sub := result.Created[0]
	assert.Equal(t, "Acme Gym", sub.Name)
	assert.Equal(t, "45.67", sub.Amount.StringFixed(2))
	assert.Equal(t, models.CategoryHealth, sub.Category)
	assert.Equal(t, "💪", sub.Icon)
	assert.Equal(t, "p-g3", sub.ProviderTransactionID)

	stored, err := s.ListByHolder(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Acme Gym", stored[0].MerchantKey)
}

func TestRun_Idempotent(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newService(s, logging.NewMockLogger())

	first, err := svc.Run(context.Background(), "user-1", gymBatch())
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), "user-1", gymBatch())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Persisted())
	assert.Equal(t, 0, second.Persisted())
	assert.Equal(t, []string{"Acme Gym"}, second.AlreadyTracked)

	stored, err := s.ListByHolder(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRun_PartialFailure(t *testing.T) {
	s := store.NewMockStore()
	s.InsertErrors["Acme Gym"] = errors.New("disk full")
	logger := logging.NewMockLogger()

	batch := append(gymBatch(),
		tx("p-n1", "Netflix", "15.99", 1),
		tx("p-n2", "Netflix", "15.99", 28),
	)
	result, err := newService(s, logger).Run(context.Background(), "user-1", batch)
	require.NoError(t, err)

	assert.True(t, result.Partial())
	assert.Equal(t, 2, result.Detected)
	assert.Equal(t, 1, result.Persisted())
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "Acme Gym", result.Failures[0].MerchantKey)
	assert.Equal(t, "Netflix", result.Created[0].Name)
	assert.True(t, logger.HasEntry("WARN", "Detection run completed with failures"))
}

func TestRun_InputErrorsWriteNothing(t *testing.T) {
	noDate := tx("p-x", "Netflix", "15.99", 1)
	noDate.Date = time.Time{}
	noProvider := tx("", "Netflix", "15.99", 1)

	tests := []struct {
		name   string
		holder string
		txs    []models.Transaction
		field  string
	}{
		{name: "empty holder", holder: "", txs: gymBatch(), field: "holder_id"},
		{name: "nil batch", holder: "user-1", txs: nil, field: "transactions"},
		{name: "missing provider id", holder: "user-1", txs: append(gymBatch(), noProvider), field: "transactions[4].provider_id"},
		{name: "missing date", holder: "user-1", txs: append(gymBatch(), noDate), field: "transactions[4].date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMockStore()
			_, err := newService(s, logging.NewMockLogger()).Run(context.Background(), tt.holder, tt.txs)
			require.Error(t, err)

			var inputErr *syncerror.InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)
			assert.Equal(t, 0, s.InsertCalls)
			assert.Equal(t, 0, s.ListCalls)
		})
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	result, err := newService(store.NewMemoryStore(), logging.NewMockLogger()).
		Run(context.Background(), "user-1", []models.Transaction{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Detected)
	assert.Empty(t, result.Created)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(store.NewMemoryStore(), logging.NewMockLogger()).Run(ctx, "user-1", gymBatch())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
