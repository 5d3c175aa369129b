// Package detector groups a transaction batch by merchant and turns the
// recurring groups into subscription candidates.
package detector

import (
	"context"
	"runtime"
	"sort"

	"fjacquet/subsync/internal/estimator"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/merchant"
	"fjacquet/subsync/internal/models"

	"golang.org/x/sync/errgroup"
)

// DefaultMinOccurrences is the number of debits from one merchant that makes
// the merchant recurring.
const DefaultMinOccurrences = 2

// sequentialThreshold is the group count below which candidates are built
// without spawning workers.
const sequentialThreshold = 32

// Classifier resolves a merchant key to a category.
type Classifier interface {
	Categorize(key string) string
}

// IconResolver resolves a merchant key and category to a glyph.
type IconResolver interface {
	Resolve(key, category string) string
}

// Detector finds recurring merchant groups. It holds no mutable state.
type Detector struct {
	minOccurrences int
	workers        int
	classifier     Classifier
	icons          IconResolver
	logger         logging.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithMinOccurrences overrides the recurrence threshold. Values below
// DefaultMinOccurrences are ignored.
func WithMinOccurrences(n int) Option {
	return func(d *Detector) {
		if n >= DefaultMinOccurrences {
			d.minOccurrences = n
		}
	}
}

// WithWorkers sets how many groups are evaluated in parallel.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.workers = n
		}
	}
}

// New creates a Detector.
func New(classifier Classifier, icons IconResolver, logger logging.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	d := &Detector{
		minOccurrences: DefaultMinOccurrences,
		workers:        runtime.NumCPU(),
		classifier:     classifier,
		icons:          icons,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Group partitions the debit transactions of txs by merchant key. Credits and
// zero amounts are dropped. Transactions keep their batch order within a group.
func Group(txs []models.Transaction) map[string]models.MerchantGroup {
	groups := make(map[string]models.MerchantGroup)
	for _, tx := range txs {
		if !tx.IsDebit() {
			continue
		}
		key := merchant.Key(tx)
		g := groups[key]
		g.Key = key
		g.Transactions = append(g.Transactions, tx)
		groups[key] = g
	}
	return groups
}

// Recurring returns the groups of txs holding at least the threshold number of
// debits, sorted by merchant key.
func (d *Detector) Recurring(txs []models.Transaction) []models.MerchantGroup {
	groups := Group(txs)
	recurring := make([]models.MerchantGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Transactions) >= d.minOccurrences {
			recurring = append(recurring, g)
		}
	}
	sort.Slice(recurring, func(i, j int) bool { return recurring[i].Key < recurring[j].Key })

	d.logger.WithFields(
		logging.F("merchants", len(groups)),
		logging.F("recurring", len(recurring)),
	).Debug("Grouped transactions by merchant")
	return recurring
}

// Candidates detects the recurring groups of txs and enriches each with its
// estimated amount, anchor, category and icon. The result is sorted by
// merchant key. It only fails when ctx is done.
func (d *Detector) Candidates(ctx context.Context, txs []models.Transaction) ([]models.Candidate, error) {
	groups := d.Recurring(txs)
	candidates := make([]models.Candidate, len(groups))

	if len(groups) < sequentialThreshold || d.workers == 1 {
		for i, g := range groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			candidates[i] = d.evaluate(g)
		}
		return candidates, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(d.workers)
	for i, g := range groups {
		i, g := i, g
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			candidates[i] = d.evaluate(g)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	d.logger.Debug("Concurrent candidate evaluation completed",
		logging.F("groups", len(groups)),
		logging.F("workers", d.workers))
	return candidates, nil
}

func (d *Detector) evaluate(g models.MerchantGroup) models.Candidate {
	est := estimator.EstimateGroup(g)
	category := d.classifier.Categorize(g.Key)
	glyph := d.icons.Resolve(g.Key, category)

	d.logger.WithFields(
		logging.F(logging.FieldMerchantKey, g.Key),
		logging.F(logging.FieldCategory, category),
		logging.F(logging.FieldAmount, est.Amount.StringFixed(2)),
		logging.F(logging.FieldCount, len(g.Transactions)),
	).Debug("Recurring merchant detected")

	return models.Candidate{
		Key:         g.Key,
		Occurrences: len(g.Transactions),
		Amount:      est.Amount,
		Anchor:      est.Anchor,
		Category:    category,
		Icon:        glyph,
	}
}
