package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/services"
	"saldo/internal/sheets"
	gsheet "saldo/internal/sheets/google"
	"saldo/internal/sheets/memory"
	"saldo/internal/storage"
)

const (
	amqpConnectAttempts  = 5
	cacheCleanupInterval = time.Minute
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
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateLedger opens the database, connects to AMQP when configured and wires the services.
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (*Ledger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	events, err := f.connectEvents(ctx, config)
	if err != nil {
		repo.Close()
		return nil, err
	}

	caches := cache.NewManager()
	var dashCache cache.Cache[core.Dashboard]
	if config.DashboardCacheTTL > 0 {
		lru := cache.NewLRUCache[core.Dashboard](config.DashboardCacheSize, config.DashboardCacheTTL)
		caches.Register(lru)
		caches.StartCleanup(cacheCleanupInterval)
		dashCache = lru
	}

	dashboard := services.NewDashboardService(repo, dashCache, config.RecentTransactions)

	// A nil *amqp.Client stored in the interface would not compare equal to nil.
	var publisher services.ChangePublisher
	if events != nil {
		publisher = events
	}

	ledger := &Ledger{
		Repo:         repo,
		Users:        services.NewUserService(repo, dashboard),
		Accounts:     services.NewAccountService(repo, dashboard),
		Categories:   services.NewCategoryService(repo, dashboard),
		Transactions: services.NewTransactionService(repo, publisher, dashboard),
		Dashboard:    dashboard,
		Reconciler:   services.NewReconcilerService(repo, dashboard, config.ReconcileRepair),
		Events:       events,
		Caches:       caches,
	}
	ledger.Cleanup = func() error {
		caches.Stop()
		var errs []error
		if events != nil {
			errs = append(errs, events.Close())
		}
		errs = append(errs, repo.Close())
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized ledger",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", events != nil,
		"dashboard_cache_ttl", config.DashboardCacheTTL,
		"reconcile_repair", config.ReconcileRepair)

	return ledger, nil
}

func (f *DefaultFactory) connectEvents(ctx context.Context, config Config) (*amqp.Client, error) {
	if config.AMQPURL == "" {
		return nil, nil
	}
	if config.RequireEvents {
		client, err := amqp.ConnectWithRetry(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, amqpConnectAttempts)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
		}
		return client, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		return nil, nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client, nil
}

// CreateExporter returns the Google Sheets exporter, or an in-memory one when
// no spreadsheet is configured.
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (sheets.ActivityExporter, error) {
	switch config.Exporter {
	case SheetsExporter:
		cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets exporter", "sheet", config.GoogleSheetName)
		return cli, nil
	case MemoryExporter, "":
		f.logger.Info("Initialized memory exporter")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", config.Exporter)
	}
}
