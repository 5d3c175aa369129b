package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
	"fjacquet/subsync/internal/syncerror"

	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// Schema creates the tables used by PostgresStore. The partial unique index
// enforces one detected subscription per (holder, merchant key) while leaving
// manual entries, whose merchant key is NULL, unconstrained.
const Schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id                      TEXT PRIMARY KEY,
	holder_id               TEXT NOT NULL,
	merchant_key            TEXT,
	name                    TEXT NOT NULL,
	category                TEXT NOT NULL,
	logo_emoji              TEXT NOT NULL,
	amount                  NUMERIC(12, 2) NOT NULL,
	billing_cycle           TEXT NOT NULL,
	status                  TEXT NOT NULL,
	provider_transaction_id TEXT,
	next_billing_date       TIMESTAMPTZ,
	source                  TEXT NOT NULL,
	created_at              TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS subscriptions_holder_merchant_key
	ON subscriptions (holder_id, merchant_key) WHERE merchant_key IS NOT NULL;
CREATE TABLE IF NOT EXISTS cancellation_requests (
	id              TEXT PRIMARY KEY,
	holder_id       TEXT NOT NULL,
	subscription_id TEXT NOT NULL REFERENCES subscriptions (id),
	user_notes      TEXT,
	contact_info    TEXT,
	status          TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
`

const subscriptionColumns = `id, holder_id, merchant_key, name, category, logo_emoji, amount, billing_cycle,
	status, provider_transaction_id, next_billing_date, source, created_at`

// PostgresStore is a Store backed by PostgreSQL through lib/pq.
type PostgresStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewPostgresStore opens a connection pool for dsn and verifies it.
func NewPostgresStore(ctx context.Context, dsn string, logger logging.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}
	return NewPostgresStoreFromDB(db, logger), nil
}

// NewPostgresStoreFromDB wraps an existing *sql.DB.
func NewPostgresStoreFromDB(db *sql.DB, logger logging.Logger) *PostgresStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &PostgresStore{db: db, logger: logger.WithField(logging.FieldComponent, "postgres")}
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("error migrating schema: %w", err)
	}
	s.logger.Debug("Schema migrated")
	return nil
}

// InsertIfAbsent implements SubscriptionStore using ON CONFLICT against the
// partial unique index, so concurrent runs cannot both insert.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if err := validateDetected(sub); err != nil {
		return models.Subscription{}, err
	}
	q := `INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (holder_id, merchant_key) WHERE merchant_key IS NOT NULL DO NOTHING
		RETURNING id`

	var id string
	err := s.db.QueryRowContext(ctx, q, insertArgs(sub)...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscription{}, syncerror.ErrDuplicate
	}
	if err != nil {
		return models.Subscription{}, translateError(err)
	}
	return sub, nil
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if err := validateSubscription(sub); err != nil {
		return models.Subscription{}, err
	}
	q := `INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := s.db.ExecContext(ctx, q, insertArgs(sub)...); err != nil {
		return models.Subscription{}, translateError(err)
	}
	return sub, nil
}

// ListByHolder implements SubscriptionStore.
func (s *PostgresStore) ListByHolder(ctx context.Context, holderID string) ([]models.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE holder_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, q, holderID)
	if err != nil {
		return nil, fmt.Errorf("error listing subscriptions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close rows")
		}
	}()

	subs := make([]models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing subscriptions: %w", err)
	}
	return subs, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, holderID, id string) (models.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE holder_id = $1 AND id = $2`
	sub, err := scanSubscription(s.db.QueryRowContext(ctx, q, holderID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscription{}, fmt.Errorf("subscription %s: %w", id, syncerror.ErrNotFound)
	}
	return sub, err
}

// CreateCancellation implements Store.
func (s *PostgresStore) CreateCancellation(ctx context.Context, req models.CancellationRequest) (models.CancellationRequest, error) {
	if err := validateCancellation(req); err != nil {
		return models.CancellationRequest{}, err
	}
	q := `INSERT INTO cancellation_requests (id, holder_id, subscription_id, user_notes, contact_info, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, q, req.ID, req.HolderID, req.SubscriptionID,
		nullString(req.Notes), nullString(req.Contact), req.Status, req.CreatedAt)
	if err != nil {
		return models.CancellationRequest{}, translateError(err)
	}
	return req, nil
}

// ListCancellations implements Store.
func (s *PostgresStore) ListCancellations(ctx context.Context, holderID string) ([]models.CancellationRequest, error) {
	q := `SELECT id, holder_id, subscription_id, user_notes, contact_info, status, created_at
		FROM cancellation_requests WHERE holder_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, q, holderID)
	if err != nil {
		return nil, fmt.Errorf("error listing cancellation requests: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close rows")
		}
	}()

	reqs := make([]models.CancellationRequest, 0)
	for rows.Next() {
		var req models.CancellationRequest
		var notes, contact sql.NullString
		if err := rows.Scan(&req.ID, &req.HolderID, &req.SubscriptionID, &notes, &contact, &req.Status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning cancellation request: %w", err)
		}
		req.Notes = notes.String
		req.Contact = contact.String
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing cancellation requests: %w", err)
	}
	return reqs, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (models.Subscription, error) {
	var sub models.Subscription
	var merchantKey, providerTxID sql.NullString
	var nextBilling sql.NullTime
	err := row.Scan(&sub.ID, &sub.HolderID, &merchantKey, &sub.Name, &sub.Category, &sub.Icon, &sub.Amount,
		&sub.BillingCycle, &sub.Status, &providerTxID, &nextBilling, &sub.Source, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscription{}, err
	}
	if err != nil {
		return models.Subscription{}, fmt.Errorf("error scanning subscription: %w", err)
	}
	sub.MerchantKey = merchantKey.String
	sub.ProviderTransactionID = providerTxID.String
	if nextBilling.Valid {
		t := nextBilling.Time
		sub.NextBillingDate = &t
	}
	return sub, nil
}

func insertArgs(sub models.Subscription) []interface{} {
	var nextBilling sql.NullTime
	if sub.NextBillingDate != nil {
		nextBilling = sql.NullTime{Time: *sub.NextBillingDate, Valid: true}
	}
	return []interface{}{
		sub.ID, sub.HolderID, nullString(sub.MerchantKey), sub.Name, sub.Category, sub.Icon,
		sub.Amount, sub.BillingCycle, sub.Status, nullString(sub.ProviderTransactionID),
		nextBilling, sub.Source, sub.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// translateError maps a unique violation to syncerror.ErrDuplicate.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", pqErr.Constraint, syncerror.ErrDuplicate)
	}
	return err
}

var _ Store = (*PostgresStore)(nil)
