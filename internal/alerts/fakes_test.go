package alerts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/albapepper/scoracle-alerts/internal/devices"
	"github.com/albapepper/scoracle-alerts/internal/push"
	"github.com/albapepper/scoracle-alerts/internal/receipts"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --------------------------------------------------------------------------
// Devices
// --------------------------------------------------------------------------

type memDevices struct {
	tokens map[string]string
	errFor map[string]error
}

func (m *memDevices) Find(_ context.Context, code string) (*devices.Device, error) {
	if err, ok := m.errFor[code]; ok {
		return nil, err
	}
	tok, ok := m.tokens[code]
	if !ok {
		return nil, devices.ErrNotFound
	}
	return &devices.Device{Code: code, PushToken: tok}, nil
}

// --------------------------------------------------------------------------
// Stores
// --------------------------------------------------------------------------

type memRecords struct {
	mu        sync.Mutex
	rows      []Alert
	insertErr map[string]error
	mutateErr error
}

func (m *memRecords) Insert(_ context.Context, a Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.insertErr[a.UserCode]; err != nil {
		return err
	}
	a.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, a)
	return nil
}

func (m *memRecords) Update(_ context.Context, alertID string, f Fields, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mutateErr != nil {
		return 0, m.mutateErr
	}
	var n int64
	for i := range m.rows {
		r := &m.rows[i]
		if r.AlertID != alertID {
			continue
		}
		r.Title, r.Status, r.StatusColor, r.AlertLevel, r.Details = f.Title, f.Status, f.StatusColor, f.AlertLevel, f.Details
		r.UpdatedAt = at
		n++
	}
	return n, nil
}

func (m *memRecords) SoftDelete(_ context.Context, alertID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mutateErr != nil {
		return 0, m.mutateErr
	}
	var n int64
	for i := range m.rows {
		r := &m.rows[i]
		if r.AlertID != alertID || r.Deleted {
			continue
		}
		r.Deleted = true
		r.UpdatedAt = at
		n++
	}
	return n, nil
}

func (m *memRecords) ListForUser(_ context.Context, userCode string, limit int) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Alert{}
	for _, r := range m.rows {
		if r.UserCode == userCode && !r.Deleted {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRecords) ListByAlert(_ context.Context, alertID string) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Alert{}
	for _, r := range m.rows {
		if r.AlertID == alertID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memHistory struct {
	mu        sync.Mutex
	rows      []History
	insertErr error
	mutateErr error
	lastLimit int
}

func (m *memHistory) Insert(_ context.Context, h History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, h)
	return nil
}

func (m *memHistory) Update(_ context.Context, alertID string, f Fields, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mutateErr != nil {
		return 0, m.mutateErr
	}
	var n int64
	for i := range m.rows {
		r := &m.rows[i]
		if r.AlertID != alertID {
			continue
		}
		r.Title, r.Status, r.StatusColor, r.AlertLevel, r.Details = f.Title, f.Status, f.StatusColor, f.AlertLevel, f.Details
		r.UpdatedAt = at
		n++
	}
	return n, nil
}

func (m *memHistory) SoftDelete(_ context.Context, alertID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mutateErr != nil {
		return 0, m.mutateErr
	}
	var n int64
	for i := range m.rows {
		r := &m.rows[i]
		if r.AlertID != alertID || r.Deleted {
			continue
		}
		r.Deleted = true
		r.UpdatedAt = at
		n++
	}
	return n, nil
}

func (m *memHistory) List(_ context.Context, limit int) ([]History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	out := []History{}
	for _, r := range m.rows {
		if !r.Deleted {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memHistory) Get(_ context.Context, alertID string) (*History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.AlertID == alertID {
			h := r
			return &h, nil
		}
	}
	return nil, ErrNotFound
}

// --------------------------------------------------------------------------
// Gateway
// --------------------------------------------------------------------------

type fakeGateway struct {
	mu      sync.Mutex
	batches [][]push.Message
	failOn  map[int]error // batch index -> error
	errFor  map[string]string
}

func (g *fakeGateway) Send(_ context.Context, msgs []push.Message) ([]push.Ticket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := len(g.batches)
	g.batches = append(g.batches, msgs)
	if err := g.failOn[idx]; err != nil {
		return nil, err
	}
	tickets := make([]push.Ticket, len(msgs))
	for i, m := range msgs {
		if code, ok := g.errFor[m.To]; ok {
			tickets[i] = push.Ticket{Status: push.StatusError, Message: "rejected", Details: map[string]any{"error": code}}
			continue
		}
		tickets[i] = push.Ticket{Status: push.StatusOK, ID: fmt.Sprintf("ticket-%d-%d", idx, i)}
	}
	return tickets, nil
}

func (g *fakeGateway) sent() []push.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var all []push.Message
	for _, b := range g.batches {
		all = append(all, b...)
	}
	return all
}

type memTickets struct {
	recorded []receipts.PendingTicket
	err      error
}

func (m *memTickets) Record(_ context.Context, tickets []receipts.PendingTicket) error {
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, tickets...)
	return nil
}

var errBoom = errors.New("boom")
