// Package wiring assembles the application services over a workspace root.
package wiring

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/application"
	"github.com/felixgeelhaar/crewsched/internal/domain"
	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/resolution"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/config"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/storage"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/webhook"
)

// DefaultDatabase is the sqlite file used when the config names none.
const DefaultDatabase = "crewsched.db"

// DefaultCriticalThresholdPct flags forecast windows near the capacity
// ceiling.
const DefaultCriticalThresholdPct = 90.0

// AppServices exposes the application layer wired together for a workspace
// root.
type AppServices struct {
	Store      *storage.SQLiteStore
	Config     *config.Config
	Schedule   *application.ScheduleService
	Conflicts  *application.ConflictService
	Resolution *application.ResolutionService
	Capacity   *application.CapacityService

	// DatabasePath is the resolved sqlite file, for data watchers.
	DatabasePath string
	// CriticalThresholdPct is the configured critical-period cutoff.
	CriticalThresholdPct float64
}

// Close releases the underlying store.
func (s *AppServices) Close() error {
	return s.Store.Close()
}

// BuildAppServices loads config from root and constructs the store,
// detector, alert sink, and services in dependency order.
func BuildAppServices(root string) (*AppServices, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	dbPath := DefaultDatabase
	thresholds := conflict.Thresholds{}
	rates := resolution.Rates{}
	criticalPct := DefaultCriticalThresholdPct
	var sink domain.AlertSink
	if cfg != nil {
		if cfg.Database != "" {
			dbPath = cfg.Database
		}
		thresholds = conflict.Thresholds{
			MaxDailyHours:     cfg.Thresholds.MaxDailyHours,
			StandardWeekHours: cfg.Thresholds.StandardWeekHours,
			OverCapacityPct:   cfg.Thresholds.OverCapacityPct,
		}
		rates = resolution.Rates{
			ContractorHourly:   cfg.Rates.ContractorHourly,
			BaseHourly:         cfg.Rates.BaseHourly,
			OvertimeMultiplier: cfg.Rates.OvertimeMultiplier,
		}
		if cfg.Thresholds.CriticalPeriodPct > 0 {
			criticalPct = cfg.Thresholds.CriticalPeriodPct
		}
		if len(cfg.Webhooks) > 0 {
			sink = webhook.NewNotifier(cfg.Webhooks, nil)
		}
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(root, dbPath)
	}

	store, err := storage.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	detector := conflict.NewDetector(thresholds, time.Now)

	return &AppServices{
		Store:                store,
		Config:               cfg,
		Schedule:             application.NewScheduleService(store, detector, nil),
		Conflicts:            application.NewConflictService(store, detector, sink, nil),
		Resolution:           application.NewResolutionService(store, rates, nil),
		Capacity:             application.NewCapacityService(store),
		DatabasePath:         dbPath,
		CriticalThresholdPct: criticalPct,
	}, nil
}
