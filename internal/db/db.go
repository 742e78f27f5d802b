// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-alerts/internal/config"
)

// Querier is the subset of pgxpool.Pool the stores depend on.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statements maps prepared statement names to SQL. Exported so tests can
// assert every name the stores reference is registered.
var Statements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Code registry
	"access_code_league_count": "SELECT league_count FROM " + config.AccessCodesTable + " WHERE code = $1",

	// Device directory
	"device_upsert": `INSERT INTO ` + config.DevicesTable + ` (code, push_token, registration_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET push_token = EXCLUDED.push_token,
			registration_id = EXCLUDED.registration_id,
			updated_at = EXCLUDED.updated_at`,
	"device_find": "SELECT code, push_token, registration_id, updated_at FROM " + config.DevicesTable + " WHERE code = $1",
	"device_list": `SELECT d.code, d.push_token, d.registration_id, d.updated_at, ac.league_count
		FROM ` + config.DevicesTable + ` d
		LEFT JOIN ` + config.AccessCodesTable + ` ac ON ac.code = d.code
		ORDER BY d.updated_at DESC`,

	// Per-user alert ledger
	"user_alert_insert": `INSERT INTO ` + config.UserAlertsTable + ` (
			alert_id, user_code, title, status, status_color, alert_level,
			details, teams_affected, sent_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	"user_alert_update": `UPDATE ` + config.UserAlertsTable + `
		SET title = $2, status = $3, status_color = $4, alert_level = $5, details = $6, updated_at = $7
		WHERE alert_id = $1`,
	"user_alert_soft_delete": `UPDATE ` + config.UserAlertsTable + `
		SET deleted = true, updated_at = $2
		WHERE alert_id = $1 AND deleted = false`,
	"user_alert_list": `SELECT id, alert_id, user_code, title, status, status_color, alert_level,
			details, teams_affected, sent_at, updated_at, deleted
		FROM ` + config.UserAlertsTable + `
		WHERE user_code = $1 AND deleted = false
		ORDER BY sent_at DESC
		LIMIT $2`,
	"user_alert_by_alert": `SELECT id, alert_id, user_code, title, status, status_color, alert_level,
			details, teams_affected, sent_at, updated_at, deleted
		FROM ` + config.UserAlertsTable + `
		WHERE alert_id = $1
		ORDER BY id`,

	// Notification history
	"history_insert": `INSERT INTO ` + config.HistoryTable + ` (
			alert_id, title, status, status_color, alert_level, details,
			total_recipients, sent_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"history_update": `UPDATE ` + config.HistoryTable + `
		SET title = $2, status = $3, status_color = $4, alert_level = $5, details = $6, updated_at = $7
		WHERE alert_id = $1`,
	"history_soft_delete": `UPDATE ` + config.HistoryTable + `
		SET deleted = true, updated_at = $2
		WHERE alert_id = $1 AND deleted = false`,
	"history_list": `SELECT alert_id, title, status, status_color, alert_level, details,
			total_recipients, sent_at, updated_at, deleted
		FROM ` + config.HistoryTable + `
		WHERE deleted = false
		ORDER BY sent_at DESC
		LIMIT $1`,
	"history_get": `SELECT alert_id, title, status, status_color, alert_level, details,
			total_recipients, sent_at, updated_at, deleted
		FROM ` + config.HistoryTable + `
		WHERE alert_id = $1`,

	// Push ticket bookkeeping
	"push_ticket_insert": `INSERT INTO ` + config.PushTicketsTable + ` (ticket_id, alert_id, user_code, status, created_at)
		VALUES ($1, $2, $3, 'pending', $4)
		ON CONFLICT (ticket_id) DO NOTHING`,
	"push_ticket_pending": `SELECT ticket_id, alert_id, user_code, created_at
		FROM ` + config.PushTicketsTable + `
		WHERE status = 'pending' AND created_at <= $1
		ORDER BY created_at
		LIMIT $2`,
	"push_ticket_resolve": `UPDATE ` + config.PushTicketsTable + `
		SET status = $2, error = $3, checked_at = $4
		WHERE ticket_id = $1`,
	"push_ticket_purge": `DELETE FROM ` + config.PushTicketsTable + `
		WHERE status <> 'pending' AND checked_at < $1`,
}

// registerPreparedStatements registers all statements the API and CLI use.
// Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
