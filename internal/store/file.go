package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fjacquet/subsync/internal/fileutils"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileStore is a Store kept in a single YAML file. Reads are served from
// memory; every write reloads the file, applies the change and rewrites the
// file through a temporary file and a rename.
//
// Writers are serialized within one process only.
// TODO: take an advisory lock on the file so two concurrent processes cannot
// overwrite each other's writes.
type FileStore struct {
	path   string
	mu     sync.Mutex
	mem    *MemoryStore
	logger logging.Logger
}

type fileDocument struct {
	Subscriptions []subscriptionRecord `yaml:"subscriptions"`
	Cancellations []cancellationRecord `yaml:"cancellations"`
}

type subscriptionRecord struct {
	ID                    string     `yaml:"id"`
	HolderID              string     `yaml:"holder_id"`
	MerchantKey           string     `yaml:"merchant_key,omitempty"`
	Name                  string     `yaml:"name"`
	Category              string     `yaml:"category"`
	Icon                  string     `yaml:"icon"`
	Amount                string     `yaml:"amount"`
	BillingCycle          string     `yaml:"billing_cycle"`
	Status                string     `yaml:"status"`
	ProviderTransactionID string     `yaml:"provider_transaction_id,omitempty"`
	NextBillingDate       *time.Time `yaml:"next_billing_date,omitempty"`
	Source                string     `yaml:"source"`
	CreatedAt             time.Time  `yaml:"created_at"`
}

type cancellationRecord struct {
	ID             string    `yaml:"id"`
	HolderID       string    `yaml:"holder_id"`
	SubscriptionID string    `yaml:"subscription_id"`
	Notes          string    `yaml:"user_notes,omitempty"`
	Contact        string    `yaml:"contact_info,omitempty"`
	Status         string    `yaml:"status"`
	CreatedAt      time.Time `yaml:"created_at"`
}

// NewFileStore opens the store file at path. A missing file is an empty store;
// it is created on the first write.
func NewFileStore(path string, logger logging.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	s := &FileStore{
		path:   path,
		mem:    NewMemoryStore(),
		logger: logger.WithFields(logging.F(logging.FieldComponent, "filestore"), logging.F(logging.FieldInputFile, path)),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the store file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() error {
	if !fileutils.FileExists(s.path) {
		s.logger.Debug("Store file not found, starting empty")
		s.mem.restore(nil, nil)
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("error reading store file %s: %w", s.path, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error parsing store file %s: %w", s.path, err)
	}

	subs := make([]models.Subscription, 0, len(doc.Subscriptions))
	for _, rec := range doc.Subscriptions {
		amount, err := decimal.NewFromString(rec.Amount)
		if err != nil {
			return fmt.Errorf("error parsing store file %s: subscription %s amount: %w", s.path, rec.ID, err)
		}
		subs = append(subs, models.Subscription{
			ID:                    rec.ID,
			HolderID:              rec.HolderID,
			MerchantKey:           rec.MerchantKey,
			Name:                  rec.Name,
			Category:              rec.Category,
			Icon:                  rec.Icon,
			Amount:                amount,
			BillingCycle:          rec.BillingCycle,
			Status:                rec.Status,
			ProviderTransactionID: rec.ProviderTransactionID,
			NextBillingDate:       rec.NextBillingDate,
			Source:                rec.Source,
			CreatedAt:             rec.CreatedAt,
		})
	}
	reqs := make([]models.CancellationRequest, 0, len(doc.Cancellations))
	for _, rec := range doc.Cancellations {
		reqs = append(reqs, models.CancellationRequest(rec))
	}

	s.mem.restore(subs, reqs)
	s.logger.Debug("Loaded store file",
		logging.F("subscriptions", len(subs)),
		logging.F("cancellations", len(reqs)))
	return nil
}

func (s *FileStore) save() error {
	subs, reqs := s.mem.snapshot()
	doc := fileDocument{
		Subscriptions: make([]subscriptionRecord, 0, len(subs)),
		Cancellations: make([]cancellationRecord, 0, len(reqs)),
	}
	for _, sub := range subs {
		doc.Subscriptions = append(doc.Subscriptions, subscriptionRecord{
			ID:                    sub.ID,
			HolderID:              sub.HolderID,
			MerchantKey:           sub.MerchantKey,
			Name:                  sub.Name,
			Category:              sub.Category,
			Icon:                  sub.Icon,
			Amount:                sub.Amount.StringFixed(2),
			BillingCycle:          sub.BillingCycle,
			Status:                sub.Status,
			ProviderTransactionID: sub.ProviderTransactionID,
			NextBillingDate:       sub.NextBillingDate,
			Source:                sub.Source,
			CreatedAt:             sub.CreatedAt,
		})
	}
	for _, req := range reqs {
		doc.Cancellations = append(doc.Cancellations, cancellationRecord(req))
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("error marshaling store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := fileutils.EnsureDirectoryExists(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error writing store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error writing store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error writing store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error writing store file: %w", err)
	}
	return nil
}

// update applies fn to the freshly loaded store and saves the result. When
// fn or the save fails, the store is left as it was loaded.
func (s *FileStore) update(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	subs, reqs := s.mem.snapshot()
	if err := fn(); err != nil {
		return err
	}
	if err := s.save(); err != nil {
		s.mem.restore(subs, reqs)
		return err
	}
	return nil
}

// InsertIfAbsent implements SubscriptionStore.
func (s *FileStore) InsertIfAbsent(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if err := validateDetected(sub); err != nil {
		return models.Subscription{}, err
	}
	var inserted models.Subscription
	err := s.update(func() error {
		var err error
		inserted, err = s.mem.InsertIfAbsent(ctx, sub)
		return err
	})
	if err != nil {
		return models.Subscription{}, err
	}
	return inserted, nil
}

// Insert implements Store.
func (s *FileStore) Insert(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if err := validateSubscription(sub); err != nil {
		return models.Subscription{}, err
	}
	var inserted models.Subscription
	err := s.update(func() error {
		var err error
		inserted, err = s.mem.Insert(ctx, sub)
		return err
	})
	if err != nil {
		return models.Subscription{}, err
	}
	return inserted, nil
}

// ListByHolder implements SubscriptionStore.
func (s *FileStore) ListByHolder(ctx context.Context, holderID string) ([]models.Subscription, error) {
	return s.mem.ListByHolder(ctx, holderID)
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, holderID, id string) (models.Subscription, error) {
	return s.mem.Get(ctx, holderID, id)
}

// CreateCancellation implements Store.
func (s *FileStore) CreateCancellation(ctx context.Context, req models.CancellationRequest) (models.CancellationRequest, error) {
	if err := validateCancellation(req); err != nil {
		return models.CancellationRequest{}, err
	}
	var created models.CancellationRequest
	err := s.update(func() error {
		var err error
		created, err = s.mem.CreateCancellation(ctx, req)
		return err
	})
	if err != nil {
		return models.CancellationRequest{}, err
	}
	return created, nil
}

// ListCancellations implements Store.
func (s *FileStore) ListCancellations(ctx context.Context, holderID string) ([]models.CancellationRequest, error) {
	return s.mem.ListCancellations(ctx, holderID)
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

var _ Store = (*FileStore)(nil)
