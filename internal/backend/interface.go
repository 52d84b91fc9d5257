package backend

import (
	"context"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/services"
	"saldo/internal/sheets"
	"saldo/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Ledger bundles the repository and the services built on top of it.
type Ledger struct {
	Repo         *storage.SQLiteRepository
	Users        *services.UserService
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	Reconciler   *services.ReconcilerService

	// Events is nil when AMQP is not configured or unreachable.
	Events *amqp.Client
	Caches *cache.Manager

	Cleanup CleanupFunc
}

// Factory creates the ledger and the activity exporter from configuration.
type Factory interface {
	CreateLedger(ctx context.Context, config Config) (*Ledger, error)
	CreateExporter(ctx context.Context, config Config) (sheets.ActivityExporter, error)
}

// Config holds configuration for backend creation
type Config struct {
	SQLiteDBPath string

	// AMQP, optional unless RequireEvents is set
	AMQPURL       string
	AMQPExchange  string
	AMQPQueue     string
	RequireEvents bool

	Exporter            ExporterType
	GoogleSpreadsheetID string
	GoogleSheetName     string

	ReconcileRepair    bool
	RecentTransactions int
	DashboardCacheTTL  time.Duration
	DashboardCacheSize int
}

// ExporterType selects where activity rows go.
type ExporterType string

const (
	SheetsExporter ExporterType = "sheets"
	MemoryExporter ExporterType = "memory"
)

// String implements fmt.Stringer
func (et ExporterType) String() string {
	return string(et)
}

// IsValid returns true if the exporter type is valid
func (et ExporterType) IsValid() bool {
	switch et {
	case SheetsExporter, MemoryExporter:
		return true
	default:
		return false
	}
}
