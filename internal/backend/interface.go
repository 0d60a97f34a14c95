package backend

import (
	"context"
	"time"

	"financeflow/internal/cache"
	"financeflow/internal/catalog"
	"financeflow/internal/services"
	"financeflow/internal/sheets"
	"financeflow/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Ledger bundles everything a process needs to serve ledger operations.
type Ledger struct {
	Store     *storage.SQLiteRepository
	Service   *services.LedgerService
	Processor *services.RecurringProcessor
	Reports   *services.ReportService
	Catalog   *catalog.Catalog
	Caches    *cache.Manager
	Cleanup   CleanupFunc
}

// MirrorResult is the sink the ledger-mirror consumer writes events to.
type MirrorResult struct {
	Mirror sheets.LedgerMirror
	Type   MirrorType
}

// Factory builds backends from configuration
type Factory interface {
	CreateLedger(ctx context.Context, config Config) (*Ledger, error)
	CreateMirror(ctx context.Context, config Config) (*MirrorResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	SQLiteDBPath string

	// Empty URL disables event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	CategoriesPath     string
	CategoriesCacheTTL time.Duration

	MirrorType          MirrorType
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// MirrorType selects where mirrored ledger events are written
type MirrorType string

const (
	SheetsMirror MirrorType = "sheets"
	MemoryMirror MirrorType = "memory"
)

// String implements fmt.Stringer
func (mt MirrorType) String() string {
	return string(mt)
}

// IsValid returns true if the mirror type is valid
func (mt MirrorType) IsValid() bool {
	switch mt {
	case SheetsMirror, MemoryMirror:
		return true
	default:
		return false
	}
}
