// Package listener provides a Postgres LISTEN/NOTIFY consumer for broadcast
// requests raised inside the database. It holds a dedicated pgx connection
// (not from the pool) listening on the `alert_requested` channel.
//
// Any writer can enqueue a broadcast with
//
//	SELECT pg_notify('alert_requested', '{"title":..., "users":[...]}');
//
// and the payload, shaped exactly like POST /api/v1/alerts/send, is handed
// to the fan-out engine.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-alerts/internal/alerts"
)

const (
	Channel          = "alert_requested"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Broadcaster fans an alert out.
type Broadcaster interface {
	Broadcast(ctx context.Context, req alerts.Request) (alerts.Result, error)
}

// Start opens a dedicated connection and listens on the alert_requested
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, b Broadcaster, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, b, logger)
		if ctx.Err() != nil {
			logger.Info("Alert listener stopped (context cancelled)")
			return
		}

		logger.Error("Alert listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, b Broadcaster, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info("Alert listener connected", "channel", Channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		// Broadcasts are slow (gateway round trips); keep draining the channel.
		go Handle(ctx, b, notification.Payload, logger)
	}
}

// Handle decodes one notification payload and broadcasts it. Malformed or
// invalid payloads are logged and dropped. The broadcaster finishes an
// accepted broadcast even after ctx is cancelled.
func Handle(ctx context.Context, b Broadcaster, payload string, logger *slog.Logger) {
	var req alerts.Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		logger.Warn("Failed to parse alert request", "payload", payload, "error", err)
		return
	}

	res, err := b.Broadcast(ctx, req)
	if err != nil {
		logger.Error("Queued broadcast failed",
			"title", req.Title, "recipients", len(req.Users), "error", err)
		return
	}
	logger.Info("Queued broadcast sent",
		"alert_id", res.AlertID, "successful", res.Successful, "failed", res.Failed, "total", res.Total)
}
