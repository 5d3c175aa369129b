package categorizer

import "fjacquet/subsync/internal/models"

// DefaultCategoryTable is the built-in keyword table. Order matters: the
// first category with a matching keyword wins.
var DefaultCategoryTable = []models.CategoryConfig{
	{Name: models.CategoryEntertainment, Keywords: []string{"netflix", "hulu", "disney", "hbo", "spotify", "apple music", "youtube"}},
	{Name: models.CategorySoftware, Keywords: []string{"adobe", "microsoft", "google", "dropbox", "github"}},
	{Name: models.CategoryAITools, Keywords: []string{"openai", "chatgpt", "anthropic", "claude"}},
	{Name: models.CategoryHealth, Keywords: []string{"gym", "fitness", "peloton", "headspace", "calm"}},
	{Name: models.CategoryNews, Keywords: []string{"nytimes", "wsj", "washington post"}},
}
