package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-alerts/internal/devices"
	"github.com/albapepper/scoracle-alerts/internal/metrics"
	"github.com/albapepper/scoracle-alerts/internal/push"
	"github.com/albapepper/scoracle-alerts/internal/receipts"
	"github.com/albapepper/scoracle-alerts/internal/validation"
)

// DeviceFinder resolves a user code to its registered device.
type DeviceFinder interface {
	Find(ctx context.Context, code string) (*devices.Device, error)
}

// TicketRecorder stores gateway tickets for later receipt reconciliation.
type TicketRecorder interface {
	Record(ctx context.Context, tickets []receipts.PendingTicket) error
}

// Deps wires an Engine.
type Deps struct {
	Devices   DeviceFinder
	Records   RecordStore
	History   HistoryStore
	Gateway   push.Gateway
	Tickets   TicketRecorder // optional
	BatchSize int
	Logger    *slog.Logger
}

// Engine fans a single alert out to its recipients.
type Engine struct {
	devices   DeviceFinder
	records   RecordStore
	history   HistoryStore
	gateway   push.Gateway
	tickets   TicketRecorder
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewEngine creates a fan-out engine.
func NewEngine(d Deps) *Engine {
	if d.BatchSize < 1 {
		d.BatchSize = defaultBatchSize
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Engine{
		devices:   d.Devices,
		records:   d.Records,
		history:   d.History,
		gateway:   d.Gateway,
		tickets:   d.Tickets,
		batchSize: d.BatchSize,
		logger:    d.Logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// dispatchItem pairs a built message with the recipient it belongs to.
type dispatchItem struct {
	userCode string
	msg      push.Message
}

// Broadcast sends one alert to every recipient in req.Users, in order.
//
// Once req is valid, per-recipient problems (no device, lookup or store
// errors) and gateway chunk failures are absorbed into the result. The only
// error returned after validation is failure to write the history row.
// A valid broadcast runs to completion even if ctx is cancelled, so every
// per-user row gets its history row.
func (e *Engine) Broadcast(ctx context.Context, req Request) (Result, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return Result{}, verr
	}
	ctx = context.WithoutCancel(ctx)

	alertID := e.newID()
	color := ResolveColor(req.StatusColor, req.Status)
	now := e.now().UTC()
	metrics.Broadcasts.Inc()

	outcomes := make([]Outcome, 0, len(req.Users))
	var pending []dispatchItem
	for _, rcpt := range req.Users {
		out, item := e.deliver(ctx, alertID, color, now, req, rcpt)
		outcomes = append(outcomes, out)
		if item != nil {
			pending = append(pending, *item)
		}
	}
	res := tally(alertID, outcomes)

	e.dispatch(ctx, alertID, pending)

	err := e.history.Insert(ctx, History{
		AlertID:         alertID,
		Title:           req.Title,
		Status:          req.Status,
		StatusColor:     color,
		AlertLevel:      req.AlertLevel,
		Details:         req.Details,
		TotalRecipients: res.Successful,
		SentAt:          now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Result{}, fmt.Errorf("broadcast %s: %w", alertID, err)
	}

	e.logger.Info("Alert broadcast",
		"alert_id", alertID, "level", req.AlertLevel,
		"successful", res.Successful, "failed", res.Failed, "total", res.Total)
	return res, nil
}

// deliver processes one recipient: resolve device, write the per-user row,
// build the message. A nil item means the recipient failed.
func (e *Engine) deliver(ctx context.Context, alertID, color string, now time.Time, req Request, rcpt Recipient) (Outcome, *dispatchItem) {
	code := devices.NormalizeCode(rcpt.UserID)
	out := Outcome{UserCode: code}

	dev, err := e.devices.Find(ctx, code)
	if errors.Is(err, devices.ErrNotFound) {
		out.Reason = ReasonNoDevice
		return out, nil
	}
	if err != nil {
		e.logger.Warn("Device lookup failed", "alert_id", alertID, "user_code", code, "error", err)
		out.Reason = ReasonLookupError
		return out, nil
	}

	err = e.records.Insert(ctx, Alert{
		AlertID:       alertID,
		UserCode:      code,
		Title:         req.Title,
		Status:        req.Status,
		StatusColor:   color,
		AlertLevel:    req.AlertLevel,
		Details:       req.Details,
		TeamsAffected: rcpt.TeamsAffected,
		SentAt:        now,
		UpdatedAt:     now,
	})
	if err != nil {
		e.logger.Warn("Per-user alert write failed", "alert_id", alertID, "user_code", code, "error", err)
		out.Reason = ReasonStoreError
		return out, nil
	}

	out.Delivered = true
	out.Reason = ReasonEnqueued
	return out, &dispatchItem{userCode: code, msg: BuildMessage(alertID, req, rcpt, dev.PushToken)}
}

// tally folds outcomes into the broadcast result.
func tally(alertID string, outcomes []Outcome) Result {
	res := Result{AlertID: alertID, Total: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Delivered {
			res.Successful++
			metrics.Recipients.WithLabelValues("successful", o.Reason).Inc()
		} else {
			res.Failed++
			metrics.Recipients.WithLabelValues("failed", o.Reason).Inc()
		}
	}
	return res
}

// dispatch sends pending messages in batchSize chunks, sequentially. Chunk
// failures are logged and do not stop later chunks.
func (e *Engine) dispatch(ctx context.Context, alertID string, pending []dispatchItem) {
	for start := 0; start < len(pending); start += e.batchSize {
		chunk := pending[start:min(start+e.batchSize, len(pending))]
		msgs := make([]push.Message, len(chunk))
		for i, it := range chunk {
			msgs[i] = it.msg
		}

		began := time.Now()
		tickets, err := e.gateway.Send(ctx, msgs)
		metrics.PushChunkDuration.Observe(time.Since(began).Seconds())
		if err != nil {
			result := "error"
			if push.IsUnavailable(err) {
				result = "breaker_open"
			}
			metrics.PushChunks.WithLabelValues(result).Inc()
			e.logger.Error("Push chunk dispatch failed",
				"alert_id", alertID, "offset", start, "size", len(chunk), "error", err)
			continue
		}
		metrics.PushChunks.WithLabelValues("ok").Inc()
		e.recordTickets(ctx, alertID, chunk, tickets)
	}
}

func (e *Engine) recordTickets(ctx context.Context, alertID string, chunk []dispatchItem, tickets []push.Ticket) {
	now := e.now().UTC()
	var accepted []receipts.PendingTicket
	for i, t := range tickets {
		if i >= len(chunk) {
			break
		}
		metrics.PushTickets.WithLabelValues(t.Status).Inc()
		if !t.OK() {
			e.logger.Warn("Push ticket error",
				"alert_id", alertID, "user_code", chunk[i].userCode,
				"error_code", t.ErrorCode(), "message", t.Message)
			continue
		}
		if t.ID != "" {
			accepted = append(accepted, receipts.PendingTicket{
				TicketID: t.ID, AlertID: alertID, UserCode: chunk[i].userCode, CreatedAt: now,
			})
		}
	}

	if e.tickets == nil || len(accepted) == 0 {
		return
	}
	if err := e.tickets.Record(ctx, accepted); err != nil {
		e.logger.Warn("Push ticket bookkeeping failed", "alert_id", alertID, "tickets", len(accepted), "error", err)
	}
}
