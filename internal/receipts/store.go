package receipts

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/scoracle-alerts/internal/db"
)

// PGStore is the Postgres ticket store.
type PGStore struct {
	q db.Querier
}

// NewPGStore creates a ticket store over a pool.
func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{q: q}
}

// Record inserts pending tickets, ignoring ids already present.
func (s *PGStore) Record(ctx context.Context, tickets []PendingTicket) error {
	for _, t := range tickets {
		if _, err := s.q.Exec(ctx, "push_ticket_insert", t.TicketID, t.AlertID, t.UserCode, t.CreatedAt); err != nil {
			return fmt.Errorf("insert push ticket %s: %w", t.TicketID, err)
		}
	}
	return nil
}

// Pending returns pending tickets created at or before olderThan.
func (s *PGStore) Pending(ctx context.Context, olderThan time.Time, limit int) ([]PendingTicket, error) {
	rows, err := s.q.Query(ctx, "push_ticket_pending", olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending tickets: %w", err)
	}
	defer rows.Close()

	var tickets []PendingTicket
	for rows.Next() {
		var t PendingTicket
		if err := rows.Scan(&t.TicketID, &t.AlertID, &t.UserCode, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// Resolve records a ticket's final status.
func (s *PGStore) Resolve(ctx context.Context, ticketID, status, errMsg string, at time.Time) error {
	_, err := s.q.Exec(ctx, "push_ticket_resolve", ticketID, status, errMsg, at)
	return err
}

// Purge deletes resolved tickets checked before the cutoff.
func (s *PGStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, "push_ticket_purge", before)
	if err != nil {
		return 0, fmt.Errorf("purge push tickets: %w", err)
	}
	return tag.RowsAffected(), nil
}
