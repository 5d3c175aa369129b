// Package categorizer maps merchant keys to one of a fixed set of categories
// by ordered keyword matching.
package categorizer

import (
	"strings"

	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
)

// Classifier resolves a merchant key to a category. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	table  []models.CategoryConfig
	logger logging.Logger
}

// NewClassifier creates a Classifier over table. A nil or empty table selects
// DefaultCategoryTable. Keywords are lower-cased once here.
func NewClassifier(table []models.CategoryConfig, logger logging.Logger) *Classifier {
	if len(table) == 0 {
		table = DefaultCategoryTable
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	normalized := make([]models.CategoryConfig, 0, len(table))
	for _, cfg := range table {
		keywords := make([]string, 0, len(cfg.Keywords))
		for _, k := range cfg.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		normalized = append(normalized, models.CategoryConfig{Name: cfg.Name, Keywords: keywords})
	}

	return &Classifier{table: normalized, logger: logger}
}

// NewClassifierFromStore builds a Classifier from the table held by store,
// falling back to DefaultCategoryTable when the store has none or fails.
func NewClassifierFromStore(store TableStore, logger logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	var table []models.CategoryConfig
	if store != nil {
		loaded, err := store.LoadCategories()
		if err != nil {
			logger.WithError(err).Warn("Failed to load category table, using built-in table")
		} else {
			table = loaded
			logger.WithField(logging.FieldCount, len(loaded)).Debug("Loaded category table")
		}
	}
	return NewClassifier(table, logger)
}

// Categorize returns the category of key, or models.CategoryOther when no
// keyword matches. It never fails.
func (c *Classifier) Categorize(key string) string {
	category, _, found := c.Match(key)
	if !found {
		return models.CategoryOther
	}
	return category
}

// Match returns the first category whose keyword is a substring of the
// lower-cased key, together with the matching keyword.
func (c *Classifier) Match(key string) (category, keyword string, found bool) {
	lower := strings.ToLower(key)
	for _, cfg := range c.table {
		for _, k := range cfg.Keywords {
			if strings.Contains(lower, k) {
				c.logger.WithFields(
					logging.F(logging.FieldMerchantKey, key),
					logging.F("keyword", k),
					logging.F(logging.FieldCategory, cfg.Name),
				).Debug("Merchant categorized using keyword matching")
				return cfg.Name, k, true
			}
		}
	}
	return "", "", false
}

// Categories returns the category names in priority order.
func (c *Classifier) Categories() []string {
	names := make([]string, 0, len(c.table))
	for _, cfg := range c.table {
		names = append(names, cfg.Name)
	}
	return names
}

// Table returns a copy of the normalized keyword table.
func (c *Classifier) Table() []models.CategoryConfig {
	out := make([]models.CategoryConfig, len(c.table))
	for i, cfg := range c.table {
		out[i] = models.CategoryConfig{Name: cfg.Name, Keywords: append([]string(nil), cfg.Keywords...)}
	}
	return out
}
