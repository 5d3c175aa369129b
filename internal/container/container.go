// Package container provides dependency injection for the subsync application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"fjacquet/subsync/internal/categorizer"
	"fjacquet/subsync/internal/config"
	"fjacquet/subsync/internal/detector"
	"fjacquet/subsync/internal/icon"
	"fjacquet/subsync/internal/importer"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/reconcile"
	"fjacquet/subsync/internal/report"
	"fjacquet/subsync/internal/store"
	"fjacquet/subsync/internal/subscriptions"
	"fjacquet/subsync/internal/syncer"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	tables     *store.TableStore
	store      store.Store
	classifier *categorizer.Classifier
	icons      *icon.Resolver
	detector   *detector.Detector
	engine     *reconcile.Engine
	syncer     *syncer.Service
	subs       *subscriptions.Service
	importer   *importer.Importer
	reports    *report.Generator
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	logger logging.Logger
	store  store.Store
}

// WithLogger uses logger instead of one built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStore uses s instead of opening the configured store driver.
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// NewContainer creates and wires all application dependencies. With the
// postgres driver it connects and migrates the schema.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger first as it's needed by other components
	logger := o.logger
	if logger == nil {
		logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}

	tables := store.NewTableStore(cfg.Tables.CategoriesFile, cfg.Tables.IconsFile, logger)
	classifier := categorizer.NewClassifierFromStore(tables, logger)
	icons := icon.NewResolverFromStore(tables, logger)

	subStore := o.store
	if subStore == nil {
		var err error
		subStore, err = openStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	det := detector.New(classifier, icons, logger,
		detector.WithMinOccurrences(cfg.Detection.MinOccurrences),
		detector.WithWorkers(cfg.Detection.Workers))
	engine := reconcile.NewEngine(subStore, logger, reconcile.WithWorkers(cfg.Detection.Workers))

	delimiter := cfg.DelimiterRune()

	logger.Debug("Container initialized successfully",
		logging.F("store_driver", cfg.Store.Driver),
		logging.F("categories", len(classifier.Categories())),
		logging.F("workers", cfg.Detection.Workers))

	return &Container{
		logger:     logger,
		config:     cfg,
		tables:     tables,
		store:      subStore,
		classifier: classifier,
		icons:      icons,
		detector:   det,
		engine:     engine,
		syncer:     syncer.NewService(det, engine, logger),
		subs:       subscriptions.NewService(subStore, classifier, icons, logger),
		importer:   importer.New(delimiter, logger),
		reports:    report.NewGenerator(delimiter, logger),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", config.DriverMemory:
		return store.NewMemoryStore(), nil
	case config.DriverFile:
		return store.NewFileStore(cfg.Store.Path, logger)
	case config.DriverPostgres:
		pg, err := store.NewPostgresStore(ctx, cfg.Store.DSN, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetTableStore returns the keyword table store.
func (c *Container) GetTableStore() *store.TableStore {
	return c.tables
}

// GetStore returns the subscription store.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetClassifier returns the category classifier.
func (c *Container) GetClassifier() *categorizer.Classifier {
	return c.classifier
}

// GetIconResolver returns the icon resolver.
func (c *Container) GetIconResolver() *icon.Resolver {
	return c.icons
}

// GetDetector returns the recurrence detector.
func (c *Container) GetDetector() *detector.Detector {
	return c.detector
}

// GetSyncer returns the detection run service.
func (c *Container) GetSyncer() *syncer.Service {
	return c.syncer
}

// GetSubscriptions returns the subscription workflow service.
func (c *Container) GetSubscriptions() *subscriptions.Service {
	return c.subs
}

// GetImporter returns the CSV transaction importer.
func (c *Container) GetImporter() *importer.Importer {
	return c.importer
}

// GetReportGenerator returns the report generator.
func (c *Container) GetReportGenerator() *report.Generator {
	return c.reports
}

// Close releases the store.
func (c *Container) Close() error {
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("error closing store: %w", err)
	}
	c.logger.Debug("Container closed")
	return nil
}
