package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

const stockSweepJob = "stock_status_sweep"

// StockSyncer re-derives product statuses from stock levels.
type StockSyncer interface {
	SyncStockStatuses() (int64, error)
}

// JobObserver records job runs.
type JobObserver interface {
	ObserveJob(job string, duration time.Duration, err error)
}

// StockScheduler periodically flips sold-out products to "out of stock"
// and restocked ones back to active.
type StockScheduler struct {
	cron     *cron.Cron
	spec     string
	syncer   StockSyncer
	observer JobObserver
}

// NewStockScheduler builds a scheduler for the standard five-field cron
// spec. observer may be nil.
func NewStockScheduler(spec string, syncer StockSyncer, observer JobObserver) *StockScheduler {
	return &StockScheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:     spec,
		syncer:   syncer,
		observer: observer,
	}
}

// Start schedules the sweep and starts the cron loop.
func (s *StockScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for stock sweep", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Stock scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce performs a single sweep.
func (s *StockScheduler) RunOnce() {
	start := time.Now()
	changed, err := s.syncer.SyncStockStatuses()
	if s.observer != nil {
		s.observer.ObserveJob(stockSweepJob, time.Since(start), err)
	}
	if err != nil {
		logger.Error("Scheduled stock sweep failed", err)
		return
	}

	logger.Debug("Scheduled stock sweep finished", map[string]interface{}{
		"changed": changed,
	})
}

// Stop halts scheduling and waits for a running sweep, bounded by ctx.
func (s *StockScheduler) Stop(ctx context.Context) {
	logger.Info("Stopping stock scheduler")
	select {
	case <-s.cron.Stop().Done():
		logger.Info("Stock scheduler stopped")
	case <-ctx.Done():
		logger.Warn("Stock scheduler stop timed out")
	}
}
