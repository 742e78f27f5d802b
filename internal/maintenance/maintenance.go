// Package maintenance runs periodic background tasks as Go tickers.
// The API server is already long-running (it holds the LISTEN connection),
// so scheduled work lives here rather than in pg_cron.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-alerts/internal/receipts"
)

// Reconciler resolves pending push tickets.
type Reconciler interface {
	Reconcile(ctx context.Context) (receipts.Summary, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	ReceiptInterval time.Duration
	TaskTimeout     time.Duration
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		ReceiptInterval: 15 * time.Minute,
		TaskTimeout:     5 * time.Minute,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, rec Reconciler, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started", "receipts", cfg.ReceiptInterval)

	if cfg.ReceiptInterval > 0 && rec != nil {
		t := time.NewTicker(cfg.ReceiptInterval)
		defer t.Stop()
		go runLoop(ctx, t.C, func() { reconcileReceipts(ctx, rec, cfg.TaskTimeout, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// reconcileReceipts runs one receipt pass and logs its summary.
func reconcileReceipts(ctx context.Context, rec Reconciler, timeout time.Duration, logger *slog.Logger) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sum, err := rec.Reconcile(ctx)
	if err != nil {
		logger.Warn("Receipts: reconciliation failed", "error", err)
		return
	}
	for _, e := range sum.Errors {
		logger.Warn("Receipts: partial failure", "error", e)
	}
	if sum.Checked > 0 || sum.Purged > 0 {
		logger.Info("Receipts: reconciled", "summary", sum.String())
	}
}
