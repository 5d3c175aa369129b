package store

import (
	"context"
	"sync"

	"fjacquet/subsync/internal/models"
)

// MockTableStore is a table store for tests.
type MockTableStore struct {
	Categories []models.CategoryConfig
	Icons      models.IconsConfig

	LoadCategoriesError error
	LoadIconsError      error
}

// LoadCategories returns the mock category table.
func (m *MockTableStore) LoadCategories() ([]models.CategoryConfig, error) {
	if m.LoadCategoriesError != nil {
		return nil, m.LoadCategoriesError
	}
	return m.Categories, nil
}

// LoadIcons returns the mock icon table.
func (m *MockTableStore) LoadIcons() (models.IconsConfig, error) {
	if m.LoadIconsError != nil {
		return models.IconsConfig{}, m.LoadIconsError
	}
	return m.Icons, nil
}

// MockStore is a MemoryStore with injectable failures and call counters.
type MockStore struct {
	*MemoryStore

	mu sync.Mutex
	// InsertErrors fails InsertIfAbsent for the listed merchant keys.
	InsertErrors map[string]error
	// ListError fails every ListByHolder call.
	ListError error
	// BeforeInsert, when set, runs before each InsertIfAbsent.
	BeforeInsert func(sub models.Subscription)

	InsertCalls int
	ListCalls   int
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: NewMemoryStore(), InsertErrors: map[string]error{}}
}

// InsertIfAbsent records the call and applies any injected failure.
func (m *MockStore) InsertIfAbsent(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	m.mu.Lock()
	m.InsertCalls++
	err := m.InsertErrors[sub.MerchantKey]
	hook := m.BeforeInsert
	m.mu.Unlock()

	if hook != nil {
		hook(sub)
	}
	if err != nil {
		return models.Subscription{}, err
	}
	return m.MemoryStore.InsertIfAbsent(ctx, sub)
}

// ListByHolder records the call and applies any injected failure.
func (m *MockStore) ListByHolder(ctx context.Context, holderID string) ([]models.Subscription, error) {
	m.mu.Lock()
	m.ListCalls++
	err := m.ListError
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.MemoryStore.ListByHolder(ctx, holderID)
}

var _ Store = (*MockStore)(nil)
