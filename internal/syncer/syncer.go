// Package syncer runs one detection pass for an account holder: validate the
// transaction batch, detect recurring merchants, then reconcile them with the
// holder's stored subscriptions.
package syncer

import (
	"context"
	"fmt"
	"time"

	"fjacquet/subsync/internal/detector"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
	"fjacquet/subsync/internal/reconcile"
	"fjacquet/subsync/internal/syncerror"
)

// Result is the outcome of a detection run.
type Result struct {
	*reconcile.Result
	// Candidates are the recurring merchants found in the batch, sorted by key.
	Candidates   []models.Candidate
	Transactions int
	Duration     time.Duration
}

// Service orchestrates detection runs.
type Service struct {
	detector *detector.Detector
	engine   *reconcile.Engine
	logger   logging.Logger
}

// NewService creates a Service.
func NewService(d *detector.Detector, e *reconcile.Engine, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Service{detector: d, engine: e, logger: logger}
}

// Run detects recurring charges in txs and persists the ones the holder does
// not track yet. A malformed batch fails with an *syncerror.InputError before
// anything is written. Persistence failures do not fail the run; they are
// reported per merchant in the Result.
func (s *Service) Run(ctx context.Context, holderID string, txs []models.Transaction) (*Result, error) {
	start := time.Now()
	if err := Validate(holderID, txs); err != nil {
		s.logger.WithError(err).Warn("Rejected transaction batch",
			logging.F(logging.FieldHolderID, holderID))
		return nil, err
	}

	logger := s.logger.WithField(logging.FieldHolderID, holderID)
	logger.Info("Starting detection run", logging.F(logging.FieldCount, len(txs)))

	candidates, err := s.detector.Candidates(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("detecting recurring merchants: %w", err)
	}

	reconciled, err := s.engine.Reconcile(ctx, holderID, candidates)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Result:       reconciled,
		Candidates:   candidates,
		Transactions: len(txs),
		Duration:     time.Since(start),
	}
	if result.Partial() {
		logger.Warn("Detection run completed with failures",
			logging.F("detected", result.Detected),
			logging.F("persisted", result.Persisted()),
			logging.F("failed", len(result.Failures)),
			logging.F(logging.FieldDuration, result.Duration.String()))
	} else {
		logger.Info("Detection run completed",
			logging.F("detected", result.Detected),
			logging.F("persisted", result.Persisted()),
			logging.F(logging.FieldDuration, result.Duration.String()))
	}
	return result, nil
}

// Validate checks the holder reference and every transaction of the batch.
func Validate(holderID string, txs []models.Transaction) error {
	if holderID == "" {
		return &syncerror.InputError{Field: "holder_id", Reason: "must not be empty"}
	}
	if txs == nil {
		return &syncerror.InputError{Field: "transactions", Reason: "batch is missing"}
	}
	for i, tx := range txs {
		if tx.ProviderID == "" {
			return &syncerror.InputError{
				Field:  fmt.Sprintf("transactions[%d].provider_id", i),
				Reason: "must not be empty",
			}
		}
		if tx.Date.IsZero() {
			return &syncerror.InputError{
				Field:  fmt.Sprintf("transactions[%d].date", i),
				Reason: fmt.Sprintf("missing for provider transaction %s", tx.ProviderID),
			}
		}
	}
	return nil
}
