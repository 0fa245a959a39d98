// Package app builds the copro dependency graph from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/application/services"
	"github.com/copropiedad/ledger/pkg/config"
	domain "github.com/copropiedad/ledger/pkg/domain/services"
	"github.com/copropiedad/ledger/pkg/infrastructure/events"
	"github.com/copropiedad/ledger/pkg/infrastructure/repositories/cache"
	"github.com/copropiedad/ledger/pkg/infrastructure/repositories/memory"
	"github.com/copropiedad/ledger/pkg/infrastructure/repositories/sqlite"
)

// Wire bundles the stores and services used by the CLI
type Wire struct {
	Config     *config.Config
	Logger     *zap.Logger
	Properties *services.PropertyService
	Owners     *services.OwnerService
	Agents     *services.AgentService
	Import     *services.ImportService
	Invoices   *services.InvoiceService

	closers []func() error
}

// NewWire constructs the dependency graph from cfg. The caller owns the
// returned Wire and must Close it.
func NewWire(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ledger := domain.NewShareLedger()
	deps := services.Deps{Ledger: ledger, Logger: logger}
	w := &Wire{Config: cfg, Logger: logger}

	switch cfg.Store.Backend {
	case config.StoreMemory:
		eventStore := events.NewInMemoryEventStore(logger)
		deps.Properties = memory.NewPropertyRepository(ledger)
		deps.Owners = memory.NewOwnerRepository(0)
		deps.Agents = memory.NewAgentRepository(0)
		deps.Assignments = memory.NewAssignmentRepository(ledger)
		deps.Invoices = memory.NewInvoiceRepository()
		deps.Events = eventStore
		w.closers = append(w.closers, eventStore.Close)

	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.Store.Path); dir != "." && cfg.Store.Path != ":memory:" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, cfg.Store.Path, ledger)
		if err != nil {
			return nil, err
		}
		eventStore := store.Events(logger)
		deps.Properties = store.Properties()
		deps.Owners = store.Owners()
		deps.Agents = store.Agents()
		deps.Assignments = store.Assignments()
		deps.Invoices = store.Invoices()
		deps.Events = eventStore
		w.closers = append(w.closers, eventStore.Close, store.Close)
		logger.Debug("sqlite store opened", zap.String("path", store.Path()))
	}

	if err := events.NewAuditLog(logger.Named("audit")).Attach(deps.Events); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to attach audit log: %w", err)
	}

	if cfg.Cache.Enabled {
		cached := cache.NewPropertyRepository(deps.Properties, cache.Options{
			MaxSize:   cfg.Cache.MaxSize,
			TTL:       cfg.Cache.TTL,
			Memcached: cfg.Cache.Memcached,
			Namespace: storeNamespace(cfg.Store),
		}, logger)
		deps.PropertyStore = deps.Properties
		deps.Properties = cached
		w.closers = append(w.closers, cached.Close)
	}

	w.Properties = services.NewPropertyService(deps)
	w.Owners = services.NewOwnerService(deps)
	w.Agents = services.NewAgentService(deps, w.Properties)
	w.Import = services.NewImportService(w.Properties, w.Owners, w.Agents, logger)
	w.Invoices = services.NewInvoiceService(deps)
	return w, nil
}

// Close releases the stores in the order they were opened
func (w *Wire) Close() error {
	var errs []error
	for _, closeFn := range w.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}

// storeNamespace keeps shared cache entries of different databases apart.
// Memory stores and in-memory SQLite databases are private to the process.
func storeNamespace(store config.StoreConfig) string {
	location := store.Path
	if store.Backend == config.StoreMemory || store.Path == ":memory:" {
		location = uuid.NewString()
	} else if abs, err := filepath.Abs(store.Path); err == nil {
		location = abs
	}
	return cache.StoreNamespace(store.Backend, location)
}
