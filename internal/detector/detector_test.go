package detector

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"fjacquet/subsync/internal/categorizer"
	"fjacquet/subsync/internal/icon"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func tx(id, merchantName, amount string, month int) models.Transaction {
	return models.Transaction{
		ID:           id,
		ProviderID:   "p-" + id,
		MerchantName: merchantName,
		Amount:       decimal.RequireFromString(amount),
		Date:         base.AddDate(0, month, 0),
	}
}

func newDetector(opts ...Option) *Detector {
	logger := logging.NewMockLogger()
	return New(categorizer.NewClassifier(nil, logger), icon.NewResolver(models.IconsConfig{}), logger, opts...)
}

func TestGroup_ExcludesCredits(t *testing.T) {
	groups := Group([]models.Transaction{
		tx("1", "Netflix", "15.49", 0),
		tx("2", "Netflix", "-15.49", 1),
		tx("3", "Netflix", "0", 1),
		{ID: "4", ProviderID: "p-4", Name: "ACME GYM", Amount: decimal.RequireFromString("45"), Date: base},
		{ID: "5", ProviderID: "p-5", Amount: decimal.RequireFromString("3"), Date: base},
	})

	require.Len(t, groups, 3)
	assert.Len(t, groups["Netflix"].Transactions, 1)
	assert.Len(t, groups["ACME GYM"].Transactions, 1)
	assert.Len(t, groups[models.UnknownMerchant].Transactions, 1)
}

func TestRecurring_Threshold(t *testing.T) {
	d := newDetector()
	groups := d.Recurring([]models.Transaction{
		tx("1", "Netflix", "15.49", 0),
		tx("2", "Netflix", "15.49", 1),
		tx("3", "OneOff Store", "12.00", 0),
		tx("4", "Refunds Inc", "20.00", 0),
		tx("5", "Refunds Inc", "-20.00", 1),
	})

	require.Len(t, groups, 1)
	assert.Equal(t, "Netflix", groups[0].Key)
}

func TestRecurring_CustomThreshold(t *testing.T) {
	txs := []models.Transaction{
		tx("1", "Hulu", "7.99", 0),
		tx("2", "Hulu", "7.99", 1),
		tx("3", "Disney+", "9.99", 0),
		tx("4", "Disney+", "9.99", 1),
		tx("5", "Disney+", "9.99", 2),
	}

	d := newDetector(WithMinOccurrences(3))
	groups := d.Recurring(txs)
	require.Len(t, groups, 1)
	assert.Equal(t, "Disney+", groups[0].Key)

	// Thresholds below two are ignored.
	assert.Len(t, newDetector(WithMinOccurrences(1)).Recurring(txs), 2)
}

func TestCandidates_EndToEndScenario(t *testing.T) {
	d := newDetector()
	candidates, err := d.Candidates(context.Background(), []models.Transaction{
		tx("g1", "Acme Gym", "45.00", 0),
		tx("g2", "Acme Gym", "45.00", 1),
		tx("g3", "Acme Gym", "47.00", 2),
		tx("o1", "OneOff Store", "12.00", 1),
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Acme Gym", c.Key)
	assert.Equal(t, 3, c.Occurrences)
	assert.Equal(t, "45.67", c.Amount.StringFixed(2))
	assert.Equal(t, models.CategoryHealth, c.Category)
	assert.Equal(t, "💪", c.Icon)
	assert.Equal(t, "p-g3", c.Anchor.ProviderID)
}

func TestCandidates_OrderIndependent(t *testing.T) {
	var txs []models.Transaction
	for m := 0; m < 40; m++ {
		for i := 0; i < 3; i++ {
			txs = append(txs, tx(fmt.Sprintf("%d-%d", m, i), fmt.Sprintf("Merchant %02d", m), fmt.Sprintf("%d.%02d", 10+m, i), i))
		}
	}

	d := newDetector(WithWorkers(4))
	expected, err := d.Candidates(context.Background(), txs)
	require.NoError(t, err)
	require.Len(t, expected, 40)

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 5; round++ {
		shuffled := append([]models.Transaction(nil), txs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := d.Candidates(context.Background(), shuffled)
		require.NoError(t, err)
		require.Len(t, got, len(expected))
		for i := range expected {
			assert.Equal(t, expected[i].Key, got[i].Key)
			assert.True(t, expected[i].Amount.Equal(got[i].Amount))
			assert.Equal(t, expected[i].Anchor.ProviderID, got[i].Anchor.ProviderID)
		}
	}
}

func TestCandidates_Empty(t *testing.T) {
	candidates, err := newDetector().Candidates(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestCandidates_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDetector().Candidates(ctx, []models.Transaction{
		tx("1", "Netflix", "15.49", 0),
		tx("2", "Netflix", "15.49", 1),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
