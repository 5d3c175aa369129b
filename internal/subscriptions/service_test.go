package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/subsync/internal/categorizer"
	"fjacquet/subsync/internal/icon"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
	"fjacquet/subsync/internal/store"
	"fjacquet/subsync/internal/syncerror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	logger := logging.NewMockLogger()
	s := store.NewMemoryStore()
	svc := NewService(s, categorizer.NewClassifier(nil, logger), icon.NewResolver(models.IconsConfig{}), logger)

	// Deterministic, strictly increasing creation times.
	tick := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return svc, s
}

func TestAdd_Defaults(t *testing.T) {
	svc, _ := newService(t)

	sub, err := svc.Add(context.Background(), "user-1", AddRequest{
		Name:   "  Spotify Family ",
		Amount: decimal.RequireFromString("16.995"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "Spotify Family", sub.Name)
	assert.Empty(t, sub.MerchantKey)
	assert.True(t, sub.IsManual())
	assert.Equal(t, models.SourceManual, sub.Source)
	assert.Equal(t, models.BillingCycleMonthly, sub.BillingCycle)
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.Equal(t, models.CategoryEntertainment, sub.Category)
	assert.Equal(t, "🎵", sub.Icon)
	assert.Equal(t, "17.00", sub.Amount.StringFixed(2))
}

func TestAdd_ExplicitValues(t *testing.T) {
	svc, _ := newService(t)
	next := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	sub, err := svc.Add(context.Background(), "user-1", AddRequest{
		Name:            "Local Paper",
		Amount:          decimal.RequireFromString("120"),
		BillingCycle:    "Yearly",
		Category:        models.CategoryNews,
		Icon:            "🗞",
		Status:          models.StatusPaused,
		NextBillingDate: &next,
	})
	require.NoError(t, err)

	assert.Equal(t, models.BillingCycleYearly, sub.BillingCycle)
	assert.Equal(t, models.StatusPaused, sub.Status)
	assert.Equal(t, models.CategoryNews, sub.Category)
	assert.Equal(t, "🗞", sub.Icon)
	require.NotNil(t, sub.NextBillingDate)
	assert.True(t, next.Equal(*sub.NextBillingDate))
}

func TestAdd_CategoryFallbackIcon(t *testing.T) {
	svc, _ := newService(t)

	sub, err := svc.Add(context.Background(), "user-1", AddRequest{Name: "Headspace", Amount: decimal.NewFromInt(13)})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryHealth, sub.Category)
	assert.Equal(t, "💪", sub.Icon)
}

func TestAdd_ManualIsExemptFromUniqueness(t *testing.T) {
	svc, s := newService(t)
	for i := 0; i < 2; i++ {
		_, err := svc.Add(context.Background(), "user-1", AddRequest{Name: "Netflix", Amount: decimal.NewFromInt(10)})
		require.NoError(t, err)
	}

	// A detection for the same merchant is still allowed.
	_, err := s.InsertIfAbsent(context.Background(), models.Subscription{
		ID: "det", HolderID: "user-1", MerchantKey: "Netflix", Name: "Netflix", Source: models.SourceDetected,
	})
	require.NoError(t, err)

	all, err := s.ListByHolder(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAdd_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		holder string
		req    AddRequest
		field  string
	}{
		{name: "empty holder", holder: "", req: AddRequest{Name: "x"}, field: "holder_id"},
		{name: "blank name", holder: "u", req: AddRequest{Name: "  "}, field: "name"},
		{name: "negative amount", holder: "u", req: AddRequest{Name: "x", Amount: decimal.NewFromInt(-1)}, field: "amount"},
		{name: "bad cycle", holder: "u", req: AddRequest{Name: "x", BillingCycle: "daily"}, field: "billing_cycle"},
		{name: "bad status", holder: "u", req: AddRequest{Name: "x", Status: "expired"}, field: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			_, err := svc.Add(context.Background(), tt.holder, tt.req)
			var inputErr *syncerror.InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestListActive(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, "user-1", AddRequest{Name: "First", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user-1", AddRequest{Name: "Paused", Amount: decimal.NewFromInt(2), Status: models.StatusPaused})
	require.NoError(t, err)
	last, err := svc.Add(ctx, "user-1", AddRequest{Name: "Last", Amount: decimal.NewFromInt(3)})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user-2", AddRequest{Name: "Other", Amount: decimal.NewFromInt(4)})
	require.NoError(t, err)
	_, err = s.InsertIfAbsent(ctx, models.Subscription{
		ID: "det", HolderID: "user-1", MerchantKey: "Gone", Name: "Gone", Status: models.StatusCancelled,
	})
	require.NoError(t, err)

	active, err := svc.ListActive(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, last.ID, active[0].ID)
	assert.Equal(t, first.ID, active[1].ID)
}

func TestRequestCancellation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sub, err := svc.Add(ctx, "user-1", AddRequest{Name: "Netflix", Amount: decimal.RequireFromString("15.99")})
	require.NoError(t, err)

	req, err := svc.RequestCancellation(ctx, "user-1", CancellationInput{
		SubscriptionID: sub.ID,
		Notes:          "moving abroad",
		Contact:        "me@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.CancellationPending, req.Status)
	assert.Equal(t, sub.ID, req.SubscriptionID)
	assert.Equal(t, "moving abroad", req.Notes)

	t.Run("foreign subscription", func(t *testing.T) {
		_, err := svc.RequestCancellation(ctx, "user-2", CancellationInput{SubscriptionID: sub.ID})
		assert.True(t, errors.Is(err, syncerror.ErrNotFound))
	})
	t.Run("unknown subscription", func(t *testing.T) {
		_, err := svc.RequestCancellation(ctx, "user-1", CancellationInput{SubscriptionID: "nope"})
		assert.True(t, errors.Is(err, syncerror.ErrNotFound))
	})
	t.Run("missing id", func(t *testing.T) {
		_, err := svc.RequestCancellation(ctx, "user-1", CancellationInput{})
		assert.True(t, syncerror.IsInputError(err))
	})
}

func TestListCancellations(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	netflix, err := svc.Add(ctx, "user-1", AddRequest{Name: "Netflix", Amount: decimal.RequireFromString("15.99")})
	require.NoError(t, err)
	gym, err := svc.Add(ctx, "user-1", AddRequest{Name: "Gym", Amount: decimal.RequireFromString("45")})
	require.NoError(t, err)

	older, err := svc.RequestCancellation(ctx, "user-1", CancellationInput{SubscriptionID: netflix.ID})
	require.NoError(t, err)
	newer, err := svc.RequestCancellation(ctx, "user-1", CancellationInput{SubscriptionID: gym.ID})
	require.NoError(t, err)

	views, err := svc.ListCancellations(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, "Gym", views[0].SubscriptionName)
	assert.Equal(t, "💪", views[0].SubscriptionIcon)
	assert.Equal(t, "45.00", views[0].SubscriptionAmount.StringFixed(2))

	assert.Equal(t, older.ID, views[1].ID)
	assert.Equal(t, "Netflix", views[1].SubscriptionName)
	assert.Equal(t, "🎬", views[1].SubscriptionIcon)

	empty, err := svc.ListCancellations(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
