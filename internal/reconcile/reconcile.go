// Package reconcile persists newly detected subscriptions, skipping merchants
// the holder already has a detected subscription for.
package reconcile

import (
	"context"
	"time"

	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
	"fjacquet/subsync/internal/store"
	"fjacquet/subsync/internal/syncerror"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Result summarizes one reconciliation run.
type Result struct {
	HolderID string
	// Detected is the number of recurring candidates considered.
	Detected int
	// Created lists the subscriptions written by this run, sorted by merchant key.
	Created []models.Subscription
	// AlreadyTracked lists merchant keys skipped by the existence check.
	AlreadyTracked []string
	// Conflicts lists merchant keys another writer persisted first.
	Conflicts []string
	// Failures holds one error per merchant group that could not be persisted.
	Failures []*syncerror.PersistenceError
}

// Persisted returns the number of subscriptions created by the run.
func (r *Result) Persisted() int {
	return len(r.Created)
}

// Partial reports whether at least one group failed to persist.
func (r *Result) Partial() bool {
	return len(r.Failures) > 0
}

// Engine reconciles candidates against a holder's stored subscriptions.
type Engine struct {
	store   store.SubscriptionStore
	logger  logging.Logger
	workers int
	now     func() time.Time
	newID   func() string
	locks   *holderLocks
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets how many groups are written concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides subscription id generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// NewEngine creates an Engine writing to s.
func NewEngine(s store.SubscriptionStore, logger logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	e := &Engine{
		store:   s,
		logger:  logger,
		workers: 1,
		now:     time.Now,
		newID:   uuid.NewString,
		locks:   newHolderLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type outcome struct {
	created  *models.Subscription
	tracked  bool
	conflict bool
	failure  *syncerror.PersistenceError
}

// Reconcile persists every candidate the holder does not already track.
// Failures are isolated per merchant group and reported in the Result; only
// a missing holder id aborts the run. Runs for the same holder are
// serialized, and the store's atomic InsertIfAbsent closes the race between
// processes.
func (e *Engine) Reconcile(ctx context.Context, holderID string, candidates []models.Candidate) (*Result, error) {
	if holderID == "" {
		return nil, &syncerror.InputError{Field: "holder_id", Reason: "must not be empty"}
	}

	release := e.locks.lock(holderID)
	defer release()

	logger := e.logger.WithField(logging.FieldHolderID, holderID)
	tracked := e.trackedKeys(ctx, holderID, logger)

	outcomes := make([]outcome, len(candidates))
	eg := new(errgroup.Group)
	eg.SetLimit(e.workers)
	for i, c := range candidates {
		i, c := i, c
		if tracked[c.Key] {
			outcomes[i] = outcome{tracked: true}
			continue
		}
		eg.Go(func() error {
			outcomes[i] = e.persist(ctx, holderID, c, logger)
			return nil
		})
	}
	_ = eg.Wait()

	result := &Result{HolderID: holderID, Detected: len(candidates), Created: []models.Subscription{}}
	for i, o := range outcomes {
		switch {
		case o.created != nil:
			result.Created = append(result.Created, *o.created)
		case o.tracked:
			result.AlreadyTracked = append(result.AlreadyTracked, candidates[i].Key)
		case o.conflict:
			result.Conflicts = append(result.Conflicts, candidates[i].Key)
		case o.failure != nil:
			result.Failures = append(result.Failures, o.failure)
		}
	}

	logger.Info("Reconciliation completed",
		logging.F("detected", result.Detected),
		logging.F("persisted", result.Persisted()),
		logging.F("already_tracked", len(result.AlreadyTracked)),
		logging.F("conflicts", len(result.Conflicts)),
		logging.F("failed", len(result.Failures)))
	return result, nil
}

// trackedKeys returns the merchant keys of the holder's detected
// subscriptions. When the lookup fails every candidate goes to the store,
// whose InsertIfAbsent still rejects duplicates.
func (e *Engine) trackedKeys(ctx context.Context, holderID string, logger logging.Logger) map[string]bool {
	tracked := make(map[string]bool)
	existing, err := e.store.ListByHolder(ctx, holderID)
	if err != nil {
		logger.WithError(err).Warn("Failed to list existing subscriptions, relying on insert-if-absent")
		return tracked
	}
	for _, sub := range existing {
		if !sub.IsManual() {
			tracked[sub.MerchantKey] = true
		}
	}
	return tracked
}

func (e *Engine) persist(ctx context.Context, holderID string, c models.Candidate, logger logging.Logger) outcome {
	sub := e.newSubscription(holderID, c)
	created, err := e.store.InsertIfAbsent(ctx, sub)
	switch {
	case err == nil:
		logger.Debug("Subscription created",
			logging.F(logging.FieldMerchantKey, c.Key),
			logging.F(logging.FieldAmount, c.Amount.StringFixed(2)))
		return outcome{created: &created}
	case syncerror.IsDuplicate(err):
		logger.Debug("Subscription created concurrently, keeping existing record",
			logging.F(logging.FieldMerchantKey, c.Key))
		return outcome{conflict: true}
	default:
		logger.WithError(err).Warn("Failed to persist subscription",
			logging.F(logging.FieldMerchantKey, c.Key))
		return outcome{failure: &syncerror.PersistenceError{
			HolderID:    holderID,
			MerchantKey: c.Key,
			Operation:   "insert",
			Err:         err,
		}}
	}
}

func (e *Engine) newSubscription(holderID string, c models.Candidate) models.Subscription {
	return models.Subscription{
		ID:                    e.newID(),
		HolderID:              holderID,
		MerchantKey:           c.Key,
		Name:                  c.Key,
		Category:              c.Category,
		Icon:                  c.Icon,
		Amount:                c.Amount,
		BillingCycle:          models.BillingCycleMonthly,
		Status:                models.StatusActive,
		ProviderTransactionID: c.Anchor.ProviderID,
		Source:                models.SourceDetected,
		CreatedAt:             e.now().UTC(),
	}
}
