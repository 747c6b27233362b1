// Package container provides dependency injection for the expense-import
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"time"

	"fjacquet/expense-import/internal/batch"
	"fjacquet/expense-import/internal/categorizer"
	"fjacquet/expense-import/internal/config"
	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/importer"
	"fjacquet/expense-import/internal/learning"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	storage  store.Storage
	aiClient categorizer.ExternalClassifier
	closers  []func() error
	pipeline *categorizer.Pipeline
	learner  *learning.Learner
	importer *importer.Service
	batch    *batch.Importer
}

// NewContainer creates and wires all application dependencies with a logrus
// logger configured from cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(ctx, cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger is NewContainer with an injected logger.
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Container{logger: logger, config: cfg}

	storage, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	c.storage = storage
	c.closers = append(c.closers, storage.Close)

	keywords, err := store.LoadKeywordTable(cfg.Categorization.KeywordsFile, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	if cfg.AI.Enabled {
		client, closer, err := newAIClient(ctx, cfg.AI, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
		c.aiClient = categorizer.NewRateLimitedClassifier(client, cfg.AI.RequestsPerMinute)
		logger.Info("AI categorization enabled", logging.F("provider", cfg.AI.Provider))
	} else {
		logger.Info("AI categorization disabled")
	}

	c.pipeline = categorizer.NewDefaultPipeline(categorizer.Options{
		Rules:            storage,
		Keywords:         keywords,
		VendorWords:      cfg.Categorization.VendorWords,
		DescriptionWords: cfg.Categorization.DescriptionWords,
		AI:               c.aiClient,
		AITimeout:        time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}, logger)

	c.learner = learning.NewLearner(storage, storage, learning.Options{
		Enabled:          cfg.Categorization.AutoLearn,
		VendorWords:      cfg.Categorization.VendorWords,
		DescriptionWords: cfg.Categorization.DescriptionWords,
	}, logger)

	decoder := csvparser.NewDecoder(logger, csvparser.WithHeaderScanRows(cfg.Import.HeaderScanRows))
	c.importer = importer.NewService(storage, decoder, c.pipeline, c.learner, logger)
	c.batch = batch.NewImporter(c.importer, logger)

	logger.Info("Container initialized successfully",
		logging.F("storage_driver", cfg.Storage.Driver),
		logging.F("stages", len(c.pipeline.Stages())),
		logging.F("ai_enabled", cfg.AI.Enabled))
	return c, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger logging.Logger) (store.Storage, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return store.NewMemoryStore(), nil
	case config.StorageSQLite:
		s, err := store.NewSQLiteStore(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

func newAIClient(ctx context.Context, cfg config.AIConfig, logger logging.Logger) (categorizer.ExternalClassifier, func() error, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := categorizer.NewGeminiClassifier(ctx, cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	case config.ProviderOpenAI:
		client, err := categorizer.NewOpenAIClassifier(cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
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

// GetStorage returns the persistence layer.
func (c *Container) GetStorage() store.Storage {
	return c.storage
}

// GetPipeline returns the classification pipeline.
func (c *Container) GetPipeline() *categorizer.Pipeline {
	return c.pipeline
}

// GetLearner returns the rule learner.
func (c *Container) GetLearner() *learning.Learner {
	return c.learner
}

// GetImporter returns the import service.
func (c *Container) GetImporter() *importer.Service {
	return c.importer
}

// GetBatchImporter returns the directory importer.
func (c *Container) GetBatchImporter() *batch.Importer {
	return c.batch
}

// GetAIClient returns the container's AI client instance.
// Returns nil if AI is not enabled.
func (c *Container) GetAIClient() categorizer.ExternalClassifier {
	return c.aiClient
}

// EnsureOwner seeds the default categories of owner.
func (c *Container) EnsureOwner(ctx context.Context, owner models.OwnerID) error {
	return c.storage.EnsureDefaultCategories(ctx, owner)
}

// Close releases storage and AI clients in reverse creation order.
func (c *Container) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	c.logger.Debug("Container closed")
	return firstErr
}
