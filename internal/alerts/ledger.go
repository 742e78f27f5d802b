package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/albapepper/scoracle-alerts/internal/devices"
	"github.com/albapepper/scoracle-alerts/internal/validation"
)

// Ledger is the read and mutation surface for existing alerts. Every
// mutation goes through apply, which writes both stores.
type Ledger struct {
	records RecordStore
	history HistoryStore
	now     func() time.Time
}

// NewLedger creates a ledger over the two stores.
func NewLedger(records RecordStore, history HistoryStore) *Ledger {
	return &Ledger{records: records, history: history, now: time.Now}
}

// Update overwrites title, status, color, level and details on every
// per-user row and the history row for alertID. A blank color is resolved
// through the status table. Unknown ids affect zero rows without error.
func (l *Ledger) Update(ctx context.Context, alertID string, f Fields) (Affected, error) {
	if verr := validation.ValidateStruct(&f); verr != nil {
		return Affected{}, verr
	}
	f.StatusColor = ResolveColor(f.StatusColor, f.Status)
	at := l.now().UTC()

	return l.apply(ctx, alertID, func(m mutator) (int64, error) {
		return m.Update(ctx, alertID, f, at)
	})
}

// SoftDelete flags every row for alertID as deleted. Repeating it is a no-op.
func (l *Ledger) SoftDelete(ctx context.Context, alertID string) (Affected, error) {
	at := l.now().UTC()
	return l.apply(ctx, alertID, func(m mutator) (int64, error) {
		return m.SoftDelete(ctx, alertID, at)
	})
}

// apply runs op against the per-user store and then the history store. Both
// are always attempted; failures are joined and nothing is rolled back.
func (l *Ledger) apply(ctx context.Context, alertID string, op func(mutator) (int64, error)) (Affected, error) {
	var (
		aff  Affected
		errs []error
	)

	n, err := op(l.records)
	if err != nil {
		errs = append(errs, err)
	}
	aff.Alerts = n

	n, err = op(l.history)
	if err != nil {
		errs = append(errs, err)
	}
	aff.History = n

	if err := errors.Join(errs...); err != nil {
		return aff, fmt.Errorf("apply to alert %s: %w", alertID, err)
	}
	return aff, nil
}

// ListForUser returns the most recent non-deleted alerts for a user code.
func (l *Ledger) ListForUser(ctx context.Context, userCode string) ([]Alert, error) {
	return l.records.ListForUser(ctx, devices.NormalizeCode(userCode), UserAlertLimit)
}

// ListHistory returns non-deleted history rows, newest first. Limits outside
// (0, MaxHistoryLimit] fall back to the default or the cap.
func (l *Ledger) ListHistory(ctx context.Context, limit int) ([]History, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return l.history.List(ctx, limit)
}

// Get returns the history row and all per-user rows for alertID.
func (l *Ledger) Get(ctx context.Context, alertID string) (*Detail, error) {
	h, err := l.history.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	rows, err := l.records.ListByAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	return &Detail{History: *h, Alerts: rows}, nil
}
