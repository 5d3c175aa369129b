package icon

import "fjacquet/subsync/internal/models"

// DefaultIcon is returned when neither a keyword nor the category has a glyph.
const DefaultIcon = "💳"

// DefaultKeywordIcons is scanned in order; the first keyword found in the
// lower-cased merchant key wins.
var DefaultKeywordIcons = []models.IconConfig{
	{Keyword: "netflix", Icon: "🎬"},
	{Keyword: "hulu", Icon: "📺"},
	{Keyword: "disney", Icon: "🏰"},
	{Keyword: "spotify", Icon: "🎵"},
	{Keyword: "apple", Icon: "🍎"},
	{Keyword: "adobe", Icon: "🎨"},
	{Keyword: "chatgpt", Icon: "🤖"},
	{Keyword: "openai", Icon: "🤖"},
	{Keyword: "gym", Icon: "💪"},
	{Keyword: "peloton", Icon: "🚴"},
	{Keyword: "github", Icon: "🐙"},
}

// DefaultCategoryIcons holds the per-category fallback glyphs.
var DefaultCategoryIcons = map[string]string{
	models.CategoryEntertainment: "🎬",
	models.CategorySoftware:      "💻",
	models.CategoryAITools:       "🤖",
	models.CategoryHealth:        "💪",
	models.CategoryNews:          "📰",
	models.CategoryOther:         "💳",
}
