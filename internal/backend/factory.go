package backend

import (
	"context"
	"fmt"
	"log/slog"

	"financeflow/internal/amqp"
	"financeflow/internal/cache"
	"financeflow/internal/catalog"
	"financeflow/internal/services"
	gsheet "financeflow/internal/sheets/google"
	"financeflow/internal/sheets/memory"
	"financeflow/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateLedger opens the SQLite store, the optional AMQP publisher and the
// services layered on top of them.
func (f *DefaultFactory) CreateLedger(_ context.Context, config Config) (*Ledger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// Typed nil must not leak into the interface
	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	cat := catalog.New(config.CategoriesPath, config.CategoriesCacheTTL)
	caches := cache.NewManager()
	caches.Register(cat.Cache())
	caches.StartCleanup(config.CategoriesCacheTTL)

	ledgerService := services.NewLedgerService(repo, publisher)

	f.logger.Info("Initialized ledger backend",
		"db_path", config.SQLiteDBPath,
		"categories_path", config.CategoriesPath,
		"events_enabled", publisher != nil)

	return &Ledger{
		Store:     repo,
		Service:   ledgerService,
		Processor: services.NewRecurringProcessor(repo, publisher),
		Reports:   services.NewReportService(repo),
		Catalog:   cat,
		Caches:    caches,
		Cleanup: func() error {
			caches.Stop()
			return ledgerService.Close()
		},
	}, nil
}

// CreateMirror builds the event mirror selected by config.MirrorType.
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (*MirrorResult, error) {
	switch config.MirrorType {
	case SheetsMirror:
		cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets mirror", "sheet", config.GoogleSheetName)
		return &MirrorResult{Mirror: cli, Type: SheetsMirror}, nil
	case MemoryMirror:
		f.logger.Info("Initialized in-memory mirror")
		return &MirrorResult{Mirror: memory.New(), Type: MemoryMirror}, nil
	default:
		return nil, fmt.Errorf("unsupported mirror type: %s", config.MirrorType)
	}
}
