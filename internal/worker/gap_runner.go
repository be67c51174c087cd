package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type tenantLister interface {
	ListIDs() ([]uint, error)
}

type gapScanner interface {
	Scan(ctx context.Context, tenantID uint) (int, error)
}

// GapRunner periodically scans every tenant for knowledge gaps. A
// failing tenant is logged and skipped so one tenant cannot stall the
// sweep.
type GapRunner struct {
	tenants  tenantLister
	scanner  gapScanner
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewGapRunner(tenants tenantLister, scanner gapScanner, interval time.Duration, logger *zap.Logger) *GapRunner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &GapRunner{
		tenants:  tenants,
		scanner:  scanner,
		interval: interval,
		logger:   logger,
	}
}

func (r *GapRunner) Start(ctx context.Context) error {
	if r.cancel != nil {
		return nil
	}

	runnerCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runnerCtx.Done():
				return
			case <-ticker.C:
				r.sweep(runnerCtx)
			}
		}
	}()

	return nil
}

func (r *GapRunner) sweep(ctx context.Context) {
	ids, err := r.tenants.ListIDs()
	if err != nil {
		r.logger.Error("list tenants for gap sweep failed", zap.Error(err))
		return
	}

	for _, tenantID := range ids {
		if ctx.Err() != nil {
			return
		}
		suggested, err := r.scanner.Scan(ctx, tenantID)
		if err != nil {
			r.logger.Error("gap scan failed",
				zap.Uint("tenant_id", tenantID), zap.Error(err))
			continue
		}
		if suggested > 0 {
			r.logger.Info("gap scan produced suggestions",
				zap.Uint("tenant_id", tenantID), zap.Int("suggestions", suggested))
		}
	}
}

func (r *GapRunner) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}
