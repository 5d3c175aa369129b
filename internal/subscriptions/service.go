// Package subscriptions manages a holder's subscriptions outside detection
// runs: manual entries, the active listing and cancellation requests.
package subscriptions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
	"fjacquet/subsync/internal/store"
	"fjacquet/subsync/internal/syncerror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Classifier assigns a category to a name.
type Classifier interface {
	Categorize(key string) string
}

// IconResolver picks a glyph for a name and category.
type IconResolver interface {
	Resolve(key, category string) string
}

// AddRequest describes a manually entered subscription.
type AddRequest struct {
	Name            string
	Amount          decimal.Decimal
	BillingCycle    string
	Category        string
	Icon            string
	Status          string
	NextBillingDate *time.Time
}

// CancellationInput describes a cancellation request.
type CancellationInput struct {
	SubscriptionID string
	Notes          string
	Contact        string
}

// Service implements the subscription workflows.
type Service struct {
	store      store.Store
	classifier Classifier
	icons      IconResolver
	logger     logging.Logger
	now        func() time.Time
}

// NewService creates a Service.
func NewService(s store.Store, classifier Classifier, icons IconResolver, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Service{store: s, classifier: classifier, icons: icons, logger: logger, now: time.Now}
}

var validCycles = map[string]bool{
	models.BillingCycleMonthly: true,
	models.BillingCycleYearly:  true,
	models.BillingCycleWeekly:  true,
}

var validStatuses = map[string]bool{
	models.StatusActive:    true,
	models.StatusPaused:    true,
	models.StatusCancelled: true,
}

// Add stores a manual subscription. Billing cycle defaults to monthly and
// status to active; a missing category or icon is derived from the name.
func (s *Service) Add(ctx context.Context, holderID string, req AddRequest) (models.Subscription, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case holderID == "":
		return models.Subscription{}, &syncerror.InputError{Field: "holder_id", Reason: "must not be empty"}
	case name == "":
		return models.Subscription{}, &syncerror.InputError{Field: "name", Reason: "must not be empty"}
	case req.Amount.IsNegative():
		return models.Subscription{}, &syncerror.InputError{Field: "amount", Reason: "must not be negative"}
	}

	cycle := strings.ToLower(strings.TrimSpace(req.BillingCycle))
	if cycle == "" {
		cycle = models.BillingCycleMonthly
	}
	if !validCycles[cycle] {
		return models.Subscription{}, &syncerror.InputError{Field: "billing_cycle", Reason: fmt.Sprintf("unsupported value %q", req.BillingCycle)}
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.StatusActive
	}
	if !validStatuses[status] {
		return models.Subscription{}, &syncerror.InputError{Field: "status", Reason: fmt.Sprintf("unsupported value %q", req.Status)}
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = s.classifier.Categorize(name)
	}
	glyph := req.Icon
	if glyph == "" {
		glyph = s.icons.Resolve(name, category)
	}

	sub := models.Subscription{
		ID:              uuid.NewString(),
		HolderID:        holderID,
		Name:            name,
		Category:        category,
		Icon:            glyph,
		Amount:          models.RoundAmount(req.Amount),
		BillingCycle:    cycle,
		Status:          status,
		NextBillingDate: req.NextBillingDate,
		Source:          models.SourceManual,
		CreatedAt:       s.now().UTC(),
	}

	created, err := s.store.Insert(ctx, sub)
	if err != nil {
		return models.Subscription{}, &syncerror.PersistenceError{
			HolderID:  holderID,
			Operation: "insert manual subscription",
			Err:       err,
		}
	}

	s.logger.Info("Manual subscription added",
		logging.F(logging.FieldHolderID, holderID),
		logging.F("name", name),
		logging.F(logging.FieldCategory, category))
	return created, nil
}

// ListActive returns the holder's active subscriptions, newest first.
func (s *Service) ListActive(ctx context.Context, holderID string) ([]models.Subscription, error) {
	if holderID == "" {
		return nil, &syncerror.InputError{Field: "holder_id", Reason: "must not be empty"}
	}
	all, err := s.store.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}

	active := make([]models.Subscription, 0, len(all))
	for _, sub := range all {
		if sub.IsActive() {
			active = append(active, sub)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active, nil
}

// RequestCancellation records a pending cancellation request for one of the
// holder's subscriptions. An id the holder does not own fails with
// syncerror.ErrNotFound.
func (s *Service) RequestCancellation(ctx context.Context, holderID string, in CancellationInput) (models.CancellationRequest, error) {
	if holderID == "" {
		return models.CancellationRequest{}, &syncerror.InputError{Field: "holder_id", Reason: "must not be empty"}
	}
	if in.SubscriptionID == "" {
		return models.CancellationRequest{}, &syncerror.InputError{Field: "subscription_id", Reason: "must not be empty"}
	}

	if _, err := s.store.Get(ctx, holderID, in.SubscriptionID); err != nil {
		return models.CancellationRequest{}, err
	}

	req := models.CancellationRequest{
		ID:             uuid.NewString(),
		HolderID:       holderID,
		SubscriptionID: in.SubscriptionID,
		Notes:          in.Notes,
		Contact:        in.Contact,
		Status:         models.CancellationPending,
		CreatedAt:      s.now().UTC(),
	}
	created, err := s.store.CreateCancellation(ctx, req)
	if err != nil {
		return models.CancellationRequest{}, fmt.Errorf("creating cancellation request: %w", err)
	}

	s.logger.Info("Cancellation requested",
		logging.F(logging.FieldHolderID, holderID),
		logging.F("subscription_id", in.SubscriptionID))
	return created, nil
}

// ListCancellations returns the holder's cancellation requests, newest first,
// each joined with its subscription's name, amount and icon.
func (s *Service) ListCancellations(ctx context.Context, holderID string) ([]models.CancellationView, error) {
	if holderID == "" {
		return nil, &syncerror.InputError{Field: "holder_id", Reason: "must not be empty"}
	}
	reqs, err := s.store.ListCancellations(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("listing cancellation requests: %w", err)
	}
	subs, err := s.store.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	byID := make(map[string]models.Subscription, len(subs))
	for _, sub := range subs {
		byID[sub.ID] = sub
	}

	views := make([]models.CancellationView, 0, len(reqs))
	for _, req := range reqs {
		view := models.CancellationView{CancellationRequest: req}
		if sub, ok := byID[req.SubscriptionID]; ok {
			view.SubscriptionName = sub.Name
			view.SubscriptionAmount = sub.Amount
			view.SubscriptionIcon = sub.Icon
		}
		views = append(views, view)
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}
