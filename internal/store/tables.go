// Package store provides persistence for subscriptions and cancellation
// requests, and loading of the keyword tables used by the classifier and the
// icon resolver.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	defaultCategoriesFile = "categories.yaml"
	defaultIconsFile      = "icons.yaml"
)

// TableStore loads keyword table overrides from YAML files.
type TableStore struct {
	CategoriesFile string
	IconsFile      string
	logger         logging.Logger
}

// NewTableStore creates a TableStore. Empty file names are looked up under
// their default names in the standard locations.
func NewTableStore(categoriesFile, iconsFile string, logger logging.Logger) *TableStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &TableStore{
		CategoriesFile: categoriesFile,
		IconsFile:      iconsFile,
		logger:         logger,
	}
}

// FindConfigFile looks for filename as given, then under ./config and
// $HOME/.config/subsync.
func (s *TableStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "subsync", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// readTable returns the content of the table file, or nil when it does not
// exist. A missing file that was configured explicitly is logged as a warning.
func (s *TableStore) readTable(filename, fallback string) ([]byte, string, error) {
	configured := filename != ""
	if !configured {
		filename = fallback
	}
	path, err := s.FindConfigFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger := s.logger.WithField(logging.FieldInputFile, filename)
			if configured {
				logger.Warn("Configured table file not found, using built-in table")
			} else {
				logger.Debug("Table file not found, using built-in table")
			}
			return nil, filename, nil
		}
		return nil, filename, fmt.Errorf("error resolving table file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("error reading table file %s: %w", path, err)
	}
	return data, path, nil
}

// LoadCategories loads the category keyword table. It accepts a
// "categories:" list, a bare list, or a mapping of category name to
// {keywords: [...]}; mapping order is preserved as priority order.
// A missing file yields an empty table and no error.
func (s *TableStore) LoadCategories() ([]models.CategoryConfig, error) {
	data, path, err := s.readTable(s.CategoriesFile, defaultCategoriesFile)
	if err != nil || data == nil {
		return []models.CategoryConfig{}, err
	}

	var wrapped models.CategoriesConfig
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Categories) > 0 {
		s.logger.WithFields(logging.F(logging.FieldCount, len(wrapped.Categories)), logging.F(logging.FieldInputFile, path)).
			Debug("Loaded category table")
		return lowerKeywords(wrapped.Categories), nil
	}

	var list []models.CategoryConfig
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return lowerKeywords(list), nil
	}

	return parseCategoryMapping(data)
}

// parseCategoryMapping reads the "Name: {keywords: [...]}" layout in document order.
func parseCategoryMapping(data []byte) ([]models.CategoryConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}
	if len(doc.Content) == 0 {
		return []models.CategoryConfig{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("error parsing categories file: unexpected layout")
	}

	categories := make([]models.CategoryConfig, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		category := models.CategoryConfig{Name: root.Content[i].Value}
		var body struct {
			Keywords []string `yaml:"keywords"`
		}
		if root.Content[i+1].Kind == yaml.MappingNode {
			if err := root.Content[i+1].Decode(&body); err != nil {
				return nil, fmt.Errorf("error parsing category %s: %w", category.Name, err)
			}
			category.Keywords = body.Keywords
		}
		categories = append(categories, category)
	}
	return lowerKeywords(categories), nil
}

func lowerKeywords(categories []models.CategoryConfig) []models.CategoryConfig {
	for i := range categories {
		for j, k := range categories[i].Keywords {
			categories[i].Keywords[j] = strings.ToLower(k)
		}
	}
	return categories
}

// LoadIcons loads the icon table. A missing file yields a zero IconsConfig.
func (s *TableStore) LoadIcons() (models.IconsConfig, error) {
	data, path, err := s.readTable(s.IconsFile, defaultIconsFile)
	if err != nil || data == nil {
		return models.IconsConfig{}, err
	}

	var cfg models.IconsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return models.IconsConfig{}, fmt.Errorf("error parsing icons file %s: %w", path, err)
	}
	s.logger.WithFields(logging.F(logging.FieldCount, len(cfg.Keywords)), logging.F(logging.FieldInputFile, path)).
		Debug("Loaded icon table")
	return cfg, nil
}

// SaveCategories writes table to the categories file, creating its directory.
func (s *TableStore) SaveCategories(table []models.CategoryConfig) error {
	filename := s.CategoriesFile
	if filename == "" {
		filename = filepath.Join("config", defaultCategoriesFile)
	}
	if err := os.MkdirAll(filepath.Dir(filename), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	data, err := yaml.Marshal(models.CategoriesConfig{Categories: table})
	if err != nil {
		return fmt.Errorf("error marshaling categories: %w", err)
	}
	if err := os.WriteFile(filename, data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("error writing categories: %w", err)
	}
	s.logger.WithFields(logging.F(logging.FieldCount, len(table)), logging.F(logging.FieldOutputFile, filename)).
		Debug("Saved category table")
	return nil
}
