// Package handler provides HTTP handlers for all API endpoints.
// Handlers decode and validate at the edge, call the alert services and map
// their errors onto the shared error envelope. List reads are cached with
// ETags; mutations purge the affected prefixes.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/albapepper/scoracle-alerts/internal/alerts"
	"github.com/albapepper/scoracle-alerts/internal/api/respond"
	"github.com/albapepper/scoracle-alerts/internal/cache"
	"github.com/albapepper/scoracle-alerts/internal/devices"
	"github.com/albapepper/scoracle-alerts/internal/validation"
)

// maxBodyBytes bounds request bodies; a broadcast with thousands of
// recipients still fits comfortably.
const maxBodyBytes = 4 << 20

// Cache key prefixes.
const (
	keyDevices     = "devices"
	keyUserAlerts  = "alerts:user:"
	keyAlertDetail = "alerts:detail:"
	keyHistory     = "history:"
)

// --------------------------------------------------------------------------
// Service interfaces
// --------------------------------------------------------------------------

// DeviceService registers and lists devices.
type DeviceService interface {
	Register(ctx context.Context, req devices.RegisterRequest) (string, error)
	List(ctx context.Context) ([]devices.Device, error)
}

// Broadcaster fans an alert out.
type Broadcaster interface {
	Broadcast(ctx context.Context, req alerts.Request) (alerts.Result, error)
}

// AlertLedger reads and mutates existing alerts.
type AlertLedger interface {
	Update(ctx context.Context, alertID string, f alerts.Fields) (alerts.Affected, error)
	SoftDelete(ctx context.Context, alertID string) (alerts.Affected, error)
	ListForUser(ctx context.Context, userCode string) ([]alerts.Alert, error)
	ListHistory(ctx context.Context, limit int) ([]alerts.History, error)
	Get(ctx context.Context, alertID string) (*alerts.Detail, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Deps wires a Handler.
type Deps struct {
	Devices     DeviceService
	Broadcaster Broadcaster
	Ledger      AlertLedger
	DB          Pinger
	Cache       *cache.Cache
	Logger      *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	devices     DeviceService
	broadcaster Broadcaster
	ledger      AlertLedger
	db          Pinger
	cache       *cache.Cache
	logger      *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	if d.Cache == nil {
		d.Cache = cache.New(false)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		devices:     d.Devices,
		broadcaster: d.Broadcaster,
		ledger:      d.Ledger,
		db:          d.DB,
		cache:       d.Cache,
		logger:      d.Logger,
	}
}

// --------------------------------------------------------------------------
// Meta and health
// --------------------------------------------------------------------------

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":    "Scoracle Alerts API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Shared helpers
// --------------------------------------------------------------------------

// decodeBody reads a JSON body into v. It writes a 400 and returns false on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, respond.CodeValidation,
			"Request body must be valid JSON", err.Error())
		return false
	}
	return true
}

// serveCached writes the cached payload for key, or loads, marshals and
// caches it.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, load func() (any, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	gen := h.cache.Generation()
	v, err := load()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	etag := h.cache.SetIfCurrent(key, data, ttl, gen)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

// writeServiceError maps service errors onto HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respond.WriteValidationError(w, verr)
	case errors.Is(err, devices.ErrUnknownCode):
		respond.WriteError(w, http.StatusBadRequest, respond.CodeUnknownCode, "Access code not found")
	case errors.Is(err, alerts.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, respond.CodeNotFound, "Alert not found")
	default:
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeInternal, "Internal server error")
	}
}
