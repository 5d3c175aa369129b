package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fjacquet/subsync/internal/models"
	"fjacquet/subsync/internal/syncerror"
)

// MemoryStore is an in-memory Store, safe for concurrent use.
// Data is lost when the process exits.
type MemoryStore struct {
	mu            sync.RWMutex
	subscriptions map[string][]models.Subscription // by holder, insertion order
	byMerchant    map[string]map[string]string     // holder -> merchant key -> subscription id
	cancellations map[string][]models.CancellationRequest
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscriptions: make(map[string][]models.Subscription),
		byMerchant:    make(map[string]map[string]string),
		cancellations: make(map[string][]models.CancellationRequest),
	}
}

// InsertIfAbsent implements SubscriptionStore.
func (s *MemoryStore) InsertIfAbsent(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return models.Subscription{}, err
	}
	if err := validateDetected(sub); err != nil {
		return models.Subscription{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.byMerchant[sub.HolderID]
	if !ok {
		keys = make(map[string]string)
		s.byMerchant[sub.HolderID] = keys
	}
	if _, exists := keys[sub.MerchantKey]; exists {
		return models.Subscription{}, syncerror.ErrDuplicate
	}
	keys[sub.MerchantKey] = sub.ID
	s.subscriptions[sub.HolderID] = append(s.subscriptions[sub.HolderID], sub)
	return sub, nil
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return models.Subscription{}, err
	}
	if err := validateSubscription(sub); err != nil {
		return models.Subscription{}, err
	}
	if sub.MerchantKey != "" {
		return s.InsertIfAbsent(ctx, sub)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[sub.HolderID] = append(s.subscriptions[sub.HolderID], sub)
	return sub, nil
}

// ListByHolder implements SubscriptionStore.
func (s *MemoryStore) ListByHolder(ctx context.Context, holderID string) ([]models.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.subscriptions[holderID]
	out := make([]models.Subscription, len(subs))
	copy(out, subs)
	return out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, holderID, id string) (models.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return models.Subscription{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscriptions[holderID] {
		if sub.ID == id {
			return sub, nil
		}
	}
	return models.Subscription{}, fmt.Errorf("subscription %s: %w", id, syncerror.ErrNotFound)
}

// CreateCancellation implements Store.
func (s *MemoryStore) CreateCancellation(ctx context.Context, req models.CancellationRequest) (models.CancellationRequest, error) {
	if err := ctx.Err(); err != nil {
		return models.CancellationRequest{}, err
	}
	if err := validateCancellation(req); err != nil {
		return models.CancellationRequest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancellations[req.HolderID] = append(s.cancellations[req.HolderID], req)
	return req, nil
}

// ListCancellations implements Store.
func (s *MemoryStore) ListCancellations(ctx context.Context, holderID string) ([]models.CancellationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	reqs := s.cancellations[holderID]
	out := make([]models.CancellationRequest, len(reqs))
	copy(out, reqs)
	return out, nil
}

// snapshot returns every record, grouped by holder in holder order and in
// insertion order within a holder.
func (s *MemoryStore) snapshot() ([]models.Subscription, []models.CancellationRequest) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var subs []models.Subscription
	for _, holder := range sortedKeys(s.subscriptions) {
		subs = append(subs, s.subscriptions[holder]...)
	}
	var reqs []models.CancellationRequest
	for _, holder := range sortedKeys(s.cancellations) {
		reqs = append(reqs, s.cancellations[holder]...)
	}
	return subs, reqs
}

// restore replaces the content of the store.
func (s *MemoryStore) restore(subs []models.Subscription, reqs []models.CancellationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions = make(map[string][]models.Subscription)
	s.byMerchant = make(map[string]map[string]string)
	s.cancellations = make(map[string][]models.CancellationRequest)
	for _, sub := range subs {
		s.subscriptions[sub.HolderID] = append(s.subscriptions[sub.HolderID], sub)
		if sub.MerchantKey == "" {
			continue
		}
		if s.byMerchant[sub.HolderID] == nil {
			s.byMerchant[sub.HolderID] = make(map[string]string)
		}
		s.byMerchant[sub.HolderID][sub.MerchantKey] = sub.ID
	}
	for _, req := range reqs {
		s.cancellations[req.HolderID] = append(s.cancellations[req.HolderID], req)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
