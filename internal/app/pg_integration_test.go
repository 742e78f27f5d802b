//go:build integration

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/albapepper/scoracle-alerts/internal/alerts"
	"github.com/albapepper/scoracle-alerts/internal/config"
	"github.com/albapepper/scoracle-alerts/internal/db"
	"github.com/albapepper/scoracle-alerts/internal/devices"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// startPostgres runs a throwaway Postgres and returns its URL.
func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	skipIfNoDocker(t)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "alerts",
				"POSTGRES_PASSWORD": "alerts",
				"POSTGRES_DB":       "alerts",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://alerts:alerts@%s:%s/alerts?sslmode=disable", host, port.Port())
}

// fakeExpo accepts every message and reports every receipt as ok.
func fakeExpo(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var sent atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		var msgs []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil {
			t.Errorf("decode send body: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]any, len(msgs))
		for i := range msgs {
			n := sent.Add(1)
			data[i] = map[string]any{"status": "ok", "id": fmt.Sprintf("ticket-%d", n)}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
	mux.HandleFunc("/receipts", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode receipts body: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := map[string]any{}
		for _, id := range body.IDs {
			data[id] = map[string]any{"status": "ok"}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &sent
}

func TestPipelineAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	dbURL := startPostgres(t, ctx)

	if err := db.Migrate(ctx, dbURL); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Idempotent
	if err := db.Migrate(ctx, dbURL); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	expo, sent := fakeExpo(t)
	cfg := &config.Config{
		DatabaseURL:           dbURL,
		DBPoolMinConns:        1,
		DBPoolMaxConns:        4,
		DBPoolMaxLife:         time.Minute,
		ExpoPushURL:           expo.URL + "/send",
		ExpoReceiptsURL:       expo.URL + "/receipts",
		PushBatchSize:         100,
		PushRequestsPerSecond: 100,
		PushTimeout:           5 * time.Second,
		PushBreakerFailures:   5,
		PushBreakerCooldown:   time.Second,
		ReceiptMinAge:         0,
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, "INSERT INTO access_codes (code, league_count) VALUES ('ABC123', 2)"); err != nil {
		t.Fatalf("seed access code: %v", err)
	}

	svc := Build(cfg, pool, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Registration
	if _, err := svc.Registrar.Register(ctx, devices.RegisterRequest{Code: "abc123", PushDestination: "ExponentPushToken[first]"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Registrar.Register(ctx, devices.RegisterRequest{Code: "ABC123", PushDestination: "ExponentPushToken[second]"}); err != nil {
		t.Fatalf("re-Register: %v", err)
	}
	if _, err := svc.Registrar.Register(ctx, devices.RegisterRequest{Code: "ZZZ", PushDestination: "ExponentPushToken[x]"}); err == nil {
		t.Error("unknown code should be rejected")
	}
	list, err := svc.Registrar.List(ctx)
	if err != nil || len(list) != 1 || list[0].PushToken != "ExponentPushToken[second]" {
		t.Fatalf("devices = %+v (%v)", list, err)
	}
	if list[0].LeagueCount == nil || *list[0].LeagueCount != 2 {
		t.Errorf("league count = %v", list[0].LeagueCount)
	}

	// Broadcast
	res, err := svc.Engine.Broadcast(ctx, alerts.Request{
		Title: "Player Out", Status: "Out", AlertLevel: "monster", Details: "knee injury",
		Users: []alerts.Recipient{{UserID: "ABC123", TeamsAffected: 2}, {UserID: "NOPE999", TeamsAffected: 1}},
	})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if res.Successful != 1 || res.Failed != 1 || res.Total != 2 {
		t.Errorf("result = %+v", res)
	}
	if sent.Load() != 1 {
		t.Errorf("gateway received %d messages", sent.Load())
	}

	userAlerts, err := svc.Ledger.ListForUser(ctx, "abc123")
	if err != nil || len(userAlerts) != 1 || userAlerts[0].StatusColor != "#DC2626" || userAlerts[0].TeamsAffected != 2 {
		t.Fatalf("user alerts = %+v (%v)", userAlerts, err)
	}
	history, err := svc.Ledger.ListHistory(ctx, 0)
	if err != nil || len(history) != 1 || history[0].TotalRecipients != 1 {
		t.Fatalf("history = %+v (%v)", history, err)
	}

	// Update round trip
	aff, err := svc.Ledger.Update(ctx, res.AlertID, alerts.Fields{Title: "Player Questionable", Status: "Questionable", AlertLevel: "medium"})
	if err != nil || aff.Alerts != 1 || aff.History != 1 {
		t.Fatalf("Update = %+v (%v)", aff, err)
	}
	detail, err := svc.Ledger.Get(ctx, res.AlertID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.History.Title != "Player Questionable" || detail.Alerts[0].StatusColor != "#F59E0B" {
		t.Errorf("detail = %+v", detail)
	}

	// Receipts
	sum, err := svc.Reconciler.Reconcile(ctx)
	if err != nil || sum.Delivered != 1 {
		t.Errorf("reconcile = %s (%v)", sum, err)
	}

	// Soft delete
	aff, err = svc.Ledger.SoftDelete(ctx, res.AlertID)
	if err != nil || aff.Alerts != 1 || aff.History != 1 {
		t.Fatalf("SoftDelete = %+v (%v)", aff, err)
	}
	aff, err = svc.Ledger.SoftDelete(ctx, res.AlertID)
	if err != nil || aff.Alerts != 0 || aff.History != 0 {
		t.Errorf("second SoftDelete = %+v (%v)", aff, err)
	}
	if rows, _ := svc.Ledger.ListForUser(ctx, "ABC123"); len(rows) != 0 {
		t.Errorf("deleted alert still listed: %+v", rows)
	}
}
