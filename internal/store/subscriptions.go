package store

import (
	"context"
	"errors"

	"fjacquet/subsync/internal/models"
)

var (
	errMissingSubscriptionIDs = errors.New("subscription id and holder id are required")
	errMissingMerchantKey     = errors.New("detected subscription requires a merchant key")
	errMissingCancellationIDs = errors.New("cancellation id and holder id are required")
)

// SubscriptionStore is the storage the reconciliation engine needs.
type SubscriptionStore interface {
	// InsertIfAbsent atomically inserts a detected subscription unless one
	// already exists for (sub.HolderID, sub.MerchantKey), in which case it
	// returns syncerror.ErrDuplicate and leaves the existing record untouched.
	InsertIfAbsent(ctx context.Context, sub models.Subscription) (models.Subscription, error)

	// ListByHolder returns every subscription of the holder, any status.
	ListByHolder(ctx context.Context, holderID string) ([]models.Subscription, error)
}

// Store is the full storage surface: detected and manual subscriptions plus
// cancellation requests.
type Store interface {
	SubscriptionStore

	// Insert stores a manual subscription. No uniqueness rule applies.
	Insert(ctx context.Context, sub models.Subscription) (models.Subscription, error)

	// Get returns the holder's subscription with the given id or syncerror.ErrNotFound.
	Get(ctx context.Context, holderID, id string) (models.Subscription, error)

	CreateCancellation(ctx context.Context, req models.CancellationRequest) (models.CancellationRequest, error)
	ListCancellations(ctx context.Context, holderID string) ([]models.CancellationRequest, error)

	Close() error
}

// validateSubscription checks the fields every store requires before a write.
func validateSubscription(sub models.Subscription) error {
	if sub.ID == "" || sub.HolderID == "" {
		return errMissingSubscriptionIDs
	}
	return nil
}

func validateDetected(sub models.Subscription) error {
	if err := validateSubscription(sub); err != nil {
		return err
	}
	if sub.MerchantKey == "" {
		return errMissingMerchantKey
	}
	return nil
}

func validateCancellation(req models.CancellationRequest) error {
	if req.ID == "" || req.HolderID == "" {
		return errMissingCancellationIDs
	}
	return nil
}
