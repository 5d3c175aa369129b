// Package icon resolves the display glyph of a subscription.
package icon

import (
	"strings"

	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
)

// TableStore loads an icon table. A zero IconsConfig means no override.
type TableStore interface {
	LoadIcons() (models.IconsConfig, error)
}

// Resolver maps a merchant key and its category to a glyph. It is immutable
// after construction and safe for concurrent use.
type Resolver struct {
	keywords    []models.IconConfig
	fallbacks   map[string]string
	defaultIcon string
}

// NewResolver creates a Resolver from cfg. Empty parts of cfg fall back to the
// built-in tables.
func NewResolver(cfg models.IconsConfig) *Resolver {
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywordIcons
	}
	normalized := make([]models.IconConfig, 0, len(keywords))
	for _, k := range keywords {
		kw := strings.ToLower(strings.TrimSpace(k.Keyword))
		if kw == "" || k.Icon == "" {
			continue
		}
		normalized = append(normalized, models.IconConfig{Keyword: kw, Icon: k.Icon})
	}

	fallbacks := cfg.Fallbacks
	if len(fallbacks) == 0 {
		fallbacks = DefaultCategoryIcons
	}
	copied := make(map[string]string, len(fallbacks))
	for category, glyph := range fallbacks {
		copied[category] = glyph
	}

	defaultIcon := cfg.Default
	if defaultIcon == "" {
		defaultIcon = DefaultIcon
	}

	return &Resolver{keywords: normalized, fallbacks: copied, defaultIcon: defaultIcon}
}

// NewResolverFromStore builds a Resolver from store, using the built-in
// tables when the store has no table or fails to load one.
func NewResolverFromStore(store TableStore, logger logging.Logger) *Resolver {
	if store == nil {
		return NewResolver(models.IconsConfig{})
	}
	cfg, err := store.LoadIcons()
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("Failed to load icon table, using built-in table")
		}
		return NewResolver(models.IconsConfig{})
	}
	return NewResolver(cfg)
}

// Resolve returns the glyph for key: the first keyword match, else the
// category fallback, else the default glyph. It never fails.
func (r *Resolver) Resolve(key, category string) string {
	lower := strings.ToLower(key)
	for _, k := range r.keywords {
		if strings.Contains(lower, k.Keyword) {
			return k.Icon
		}
	}
	if glyph, ok := r.fallbacks[category]; ok && glyph != "" {
		return glyph
	}
	return r.defaultIcon
}
