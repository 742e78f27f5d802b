// Package receipts reconciles push tickets against gateway receipts.
//
// The fan-out engine records one pending ticket per message the gateway
// accepted. Some minutes later the gateway can report what actually happened
// to each message; Reconcile fetches those receipts and resolves the tickets
// to ok or error. Broadcast counts are never revised here: successful means
// "enqueued for delivery", and confirmation lives only in push_tickets.
package receipts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-alerts/internal/metrics"
	"github.com/albapepper/scoracle-alerts/internal/push"
)

const (
	// Expo accepts at most 1000 ids per receipts request.
	receiptBatchSize = 1000
	pendingScanLimit = 5000
	retention        = 7 * 24 * time.Hour
)

// Ticket statuses stored in push_tickets.
const (
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusError   = "error"
)

// PendingTicket is a ticket awaiting its receipt.
type PendingTicket struct {
	TicketID  string
	AlertID   string
	UserCode  string
	CreatedAt time.Time
}

// Store persists ticket bookkeeping.
type Store interface {
	Record(ctx context.Context, tickets []PendingTicket) error
	Pending(ctx context.Context, olderThan time.Time, limit int) ([]PendingTicket, error)
	Resolve(ctx context.Context, ticketID, status, errMsg string, at time.Time) error
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Summary tracks counts from one reconciliation pass.
type Summary struct {
	Checked   int
	Delivered int
	Failed    int
	Unknown   int // receipt not available yet
	Purged    int64
	Errors    []string
}

// String returns a human-readable summary.
func (s Summary) String() string {
	return fmt.Sprintf("checked=%d delivered=%d failed=%d unknown=%d purged=%d errors=%d",
		s.Checked, s.Delivered, s.Failed, s.Unknown, s.Purged, len(s.Errors))
}

// Reconciler resolves pending tickets.
type Reconciler struct {
	store   Store
	fetcher push.ReceiptFetcher
	minAge  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewReconciler creates a reconciler. Tickets younger than minAge are left
// alone because the gateway has not produced their receipts yet.
func NewReconciler(store Store, fetcher push.ReceiptFetcher, minAge time.Duration, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, fetcher: fetcher, minAge: minAge, logger: logger, now: time.Now}
}

// Reconcile runs one pass: fetch receipts for old pending tickets, resolve
// them, then purge resolved tickets past retention. Per-batch and per-ticket
// errors are collected into the summary; only loading the pending set is
// fatal.
func (r *Reconciler) Reconcile(ctx context.Context) (Summary, error) {
	var sum Summary
	now := r.now().UTC()

	pending, err := r.store.Pending(ctx, now.Add(-r.minAge), pendingScanLimit)
	if err != nil {
		return sum, fmt.Errorf("load pending tickets: %w", err)
	}

	for start := 0; start < len(pending); start += receiptBatchSize {
		batch := pending[start:min(start+receiptBatchSize, len(pending))]
		ids := make([]string, len(batch))
		for i, t := range batch {
			ids[i] = t.TicketID
		}

		receipts, err := r.fetcher.Receipts(ctx, ids)
		if err != nil {
			sum.Errors = append(sum.Errors, fmt.Sprintf("fetch receipts: %v", err))
			r.logger.Warn("Receipt fetch failed", "tickets", len(ids), "error", err)
			continue
		}

		for _, t := range batch {
			sum.Checked++
			rc, ok := receipts[t.TicketID]
			if !ok {
				sum.Unknown++
				continue
			}
			r.resolve(ctx, t, rc, now, &sum)
		}
	}

	purged, err := r.store.Purge(ctx, now.Add(-retention))
	if err != nil {
		sum.Errors = append(sum.Errors, fmt.Sprintf("purge tickets: %v", err))
	}
	sum.Purged = purged
	return sum, nil
}

func (r *Reconciler) resolve(ctx context.Context, t PendingTicket, rc push.Receipt, now time.Time, sum *Summary) {
	status, errMsg := StatusOK, ""
	if !rc.OK() {
		status = StatusError
		errMsg = rc.Message
		if code := rc.ErrorCode(); code != "" {
			errMsg = code + ": " + rc.Message
		}
	}
	metrics.PushReceipts.WithLabelValues(status).Inc()

	if err := r.store.Resolve(ctx, t.TicketID, status, errMsg, now); err != nil {
		sum.Errors = append(sum.Errors, fmt.Sprintf("resolve ticket %s: %v", t.TicketID, err))
		return
	}
	if status == StatusOK {
		sum.Delivered++
		return
	}
	sum.Failed++
	if rc.ErrorCode() == push.DeviceNotRegistered {
		r.logger.Warn("Device no longer registered with push gateway",
			"user_code", t.UserCode, "alert_id", t.AlertID, "ticket_id", t.TicketID)
	}
}
