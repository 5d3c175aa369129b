package models

// CategoryConfig is one row of the category keyword table: a category name
// and the lowercase substrings that select it.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CategoriesConfig is the layout of a category table YAML file.
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// IconConfig maps a lowercase merchant substring to a display glyph.
type IconConfig struct {
	Keyword string `yaml:"keyword"`
	Icon    string `yaml:"icon"`
}

// IconsConfig is the layout of an icon table YAML file.
type IconsConfig struct {
	Keywords  []IconConfig      `yaml:"keywords"`
	Fallbacks map[string]string `yaml:"category_fallbacks"`
	Default   string            `yaml:"default"`
}
