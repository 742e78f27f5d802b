package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-alerts/internal/db"
)

// mutator is the write surface both stores share. Ledger applies every
// mutation through it so neither store can be updated alone.
type mutator interface {
	Update(ctx context.Context, alertID string, f Fields, at time.Time) (int64, error)
	SoftDelete(ctx context.Context, alertID string, at time.Time) (int64, error)
}

// RecordStore is the per-user alert ledger.
type RecordStore interface {
	mutator
	Insert(ctx context.Context, a Alert) error
	ListForUser(ctx context.Context, userCode string, limit int) ([]Alert, error)
	ListByAlert(ctx context.Context, alertID string) ([]Alert, error)
}

// HistoryStore holds one aggregate row per alert id.
type HistoryStore interface {
	mutator
	Insert(ctx context.Context, h History) error
	List(ctx context.Context, limit int) ([]History, error)
	Get(ctx context.Context, alertID string) (*History, error)
}

// --------------------------------------------------------------------------
// user_alerts
// --------------------------------------------------------------------------

// PGRecords is the Postgres RecordStore.
type PGRecords struct {
	q db.Querier
}

// NewPGRecords creates a RecordStore over a pool.
func NewPGRecords(q db.Querier) *PGRecords {
	return &PGRecords{q: q}
}

// Insert writes one per-user row.
func (s *PGRecords) Insert(ctx context.Context, a Alert) error {
	_, err := s.q.Exec(ctx, "user_alert_insert",
		a.AlertID, a.UserCode, a.Title, a.Status, a.StatusColor, a.AlertLevel,
		a.Details, a.TeamsAffected, a.SentAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user alert: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of every row sharing alertID.
func (s *PGRecords) Update(ctx context.Context, alertID string, f Fields, at time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, "user_alert_update",
		alertID, f.Title, f.Status, f.StatusColor, f.AlertLevel, f.Details, at,
	)
	if err != nil {
		return 0, fmt.Errorf("update user alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SoftDelete flags every not-yet-deleted row sharing alertID.
func (s *PGRecords) SoftDelete(ctx context.Context, alertID string, at time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, "user_alert_soft_delete", alertID, at)
	if err != nil {
		return 0, fmt.Errorf("soft delete user alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListForUser returns the most recent non-deleted alerts for a user code.
func (s *PGRecords) ListForUser(ctx context.Context, userCode string, limit int) ([]Alert, error) {
	rows, err := s.q.Query(ctx, "user_alert_list", userCode, limit)
	if err != nil {
		return nil, fmt.Errorf("list user alerts: %w", err)
	}
	return scanAlerts(rows)
}

// ListByAlert returns every row for an alert id, deleted or not.
func (s *PGRecords) ListByAlert(ctx context.Context, alertID string) ([]Alert, error) {
	rows, err := s.q.Query(ctx, "user_alert_by_alert", alertID)
	if err != nil {
		return nil, fmt.Errorf("list alert recipients: %w", err)
	}
	return scanAlerts(rows)
}

func scanAlerts(rows pgx.Rows) ([]Alert, error) {
	defer rows.Close()

	alerts := []Alert{}
	for rows.Next() {
		var a Alert
		if err := rows.Scan(
			&a.ID, &a.AlertID, &a.UserCode, &a.Title, &a.Status, &a.StatusColor,
			&a.AlertLevel, &a.Details, &a.TeamsAffected, &a.SentAt, &a.UpdatedAt, &a.Deleted,
		); err != nil {
			return nil, fmt.Errorf("scan user alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// --------------------------------------------------------------------------
// notification_history
// --------------------------------------------------------------------------

// PGHistory is the Postgres HistoryStore.
type PGHistory struct {
	q db.Querier
}

// NewPGHistory creates a HistoryStore over a pool.
func NewPGHistory(q db.Querier) *PGHistory {
	return &PGHistory{q: q}
}

// Insert writes the aggregate row for a broadcast.
func (s *PGHistory) Insert(ctx context.Context, h History) error {
	_, err := s.q.Exec(ctx, "history_insert",
		h.AlertID, h.Title, h.Status, h.StatusColor, h.AlertLevel, h.Details,
		h.TotalRecipients, h.SentAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification history: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of the history row.
func (s *PGHistory) Update(ctx context.Context, alertID string, f Fields, at time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, "history_update",
		alertID, f.Title, f.Status, f.StatusColor, f.AlertLevel, f.Details, at,
	)
	if err != nil {
		return 0, fmt.Errorf("update notification history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SoftDelete flags the history row if it is not deleted yet.
func (s *PGHistory) SoftDelete(ctx context.Context, alertID string, at time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, "history_soft_delete", alertID, at)
	if err != nil {
		return 0, fmt.Errorf("soft delete notification history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List returns the most recent non-deleted history rows.
func (s *PGHistory) List(ctx context.Context, limit int) ([]History, error) {
	rows, err := s.q.Query(ctx, "history_list", limit)
	if err != nil {
		return nil, fmt.Errorf("list notification history: %w", err)
	}
	defer rows.Close()

	history := []History{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *h)
	}
	return history, rows.Err()
}

// Get returns the history row for alertID, deleted or not, or ErrNotFound.
func (s *PGHistory) Get(ctx context.Context, alertID string) (*History, error) {
	h, err := scanHistory(s.q.QueryRow(ctx, "history_get", alertID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

func scanHistory(row pgx.Row) (*History, error) {
	var h History
	if err := row.Scan(
		&h.AlertID, &h.Title, &h.Status, &h.StatusColor, &h.AlertLevel, &h.Details,
		&h.TotalRecipients, &h.SentAt, &h.UpdatedAt, &h.Deleted,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan notification history: %w", err)
	}
	return &h, nil
}
