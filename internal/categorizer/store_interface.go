package categorizer

import "fjacquet/subsync/internal/models"

// TableStore loads a category keyword table. An empty result means no
// override is configured.
type TableStore interface {
	LoadCategories() ([]models.CategoryConfig, error)
}
