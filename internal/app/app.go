// Package app assembles the alert services over a database pool. Shared by
// cmd/api and cmd/alertctl so both binaries run the same pipeline.
package app

import (
	"log/slog"

	"github.com/albapepper/scoracle-alerts/internal/alerts"
	"github.com/albapepper/scoracle-alerts/internal/config"
	"github.com/albapepper/scoracle-alerts/internal/db"
	"github.com/albapepper/scoracle-alerts/internal/devices"
	"github.com/albapepper/scoracle-alerts/internal/push"
	"github.com/albapepper/scoracle-alerts/internal/receipts"
)

// Services are the wired domain services.
type Services struct {
	Registrar  *devices.Registrar
	Engine     *alerts.Engine
	Ledger     *alerts.Ledger
	Reconciler *receipts.Reconciler
	Gateway    *push.ExpoClient
}

// Build wires every service against q.
func Build(cfg *config.Config, q db.Querier, logger *slog.Logger) *Services {
	gateway := push.NewExpoClient(push.ClientConfig{
		PushURL:           cfg.ExpoPushURL,
		ReceiptsURL:       cfg.ExpoReceiptsURL,
		AccessToken:       cfg.ExpoAccessToken,
		RequestsPerSecond: cfg.PushRequestsPerSecond,
		Timeout:           cfg.PushTimeout,
		BreakerFailures:   cfg.PushBreakerFailures,
		BreakerCooldown:   cfg.PushBreakerCooldown,
	}, logger)

	directory := devices.NewDirectory(q)
	records := alerts.NewPGRecords(q)
	history := alerts.NewPGHistory(q)
	tickets := receipts.NewPGStore(q)

	return &Services{
		Registrar: devices.NewRegistrar(directory, devices.NewCodeRegistry(q), logger),
		Engine: alerts.NewEngine(alerts.Deps{
			Devices:   directory,
			Records:   records,
			History:   history,
			Gateway:   gateway,
			Tickets:   tickets,
			BatchSize: cfg.PushBatchSize,
			Logger:    logger,
		}),
		Ledger:     alerts.NewLedger(records, history),
		Reconciler: receipts.NewReconciler(tickets, gateway, cfg.ReceiptMinAge, logger),
		Gateway:    gateway,
	}
}
