package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/scoracle-alerts/internal/alerts"
	"github.com/albapepper/scoracle-alerts/internal/api/respond"
	"github.com/albapepper/scoracle-alerts/internal/cache"
	"github.com/albapepper/scoracle-alerts/internal/devices"
)

// UpdateResponse is returned by PUT /alerts/{alertID}.
type UpdateResponse struct {
	AlertID        string `json:"alertId"`
	AlertsUpdated  int64  `json:"alertsUpdated"`
	HistoryUpdated int64  `json:"historyUpdated"`
}

// DeleteResponse is returned by DELETE /alerts/{alertID}.
type DeleteResponse struct {
	AlertID        string `json:"alertId"`
	AlertsDeleted  int64  `json:"alertsDeleted"`
	HistoryDeleted int64  `json:"historyDeleted"`
}

func (h *Handler) purgeAlerts() {
	h.cache.Purge(keyUserAlerts, keyAlertDetail, keyHistory)
}

// SendAlert broadcasts an alert to the listed users.
// @Summary Send alert
// @Description Fans the alert out to every user with a registered device. successful counts messages enqueued for the push gateway, not confirmed deliveries.
// @Tags alerts
// @Accept json
// @Produce json
// @Param body body alerts.Request true "Broadcast request"
// @Success 200 {object} alerts.Result
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /alerts/send [post]
func (h *Handler) SendAlert(w http.ResponseWriter, r *http.Request) {
	var req alerts.Request
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.broadcaster.Broadcast(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.purgeAlerts()
	respond.WriteJSONObject(w, http.StatusOK, res)
}

// GetUserAlerts returns the most recent alerts for a user code.
// @Summary List alerts for a user
// @Tags alerts
// @Produce json
// @Param code path string true "Access code"
// @Success 200 {array} alerts.Alert
// @Failure 500 {object} respond.ErrorResponse
// @Router /alerts/user/{code} [get]
func (h *Handler) GetUserAlerts(w http.ResponseWriter, r *http.Request) {
	code := devices.NormalizeCode(chi.URLParam(r, "code"))
	h.serveCached(w, r, keyUserAlerts+code, cache.TTLUserAlerts, func() (any, error) {
		return h.ledger.ListForUser(r.Context(), code)
	})
}

// GetAlert returns the history row and per-user rows for one alert.
// @Summary Get alert detail
// @Tags alerts
// @Produce json
// @Param alertID path string true "Alert id"
// @Success 200 {object} alerts.Detail
// @Failure 404 {object} respond.ErrorResponse
// @Router /alerts/{alertID} [get]
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertID")
	h.serveCached(w, r, keyAlertDetail+alertID, cache.TTLDetail, func() (any, error) {
		return h.ledger.Get(r.Context(), alertID)
	})
}

// UpdateAlert rewrites an alert in both the per-user and history stores.
// @Summary Update alert
// @Tags alerts
// @Accept json
// @Produce json
// @Param alertID path string true "Alert id"
// @Param body body alerts.Fields true "New fields"
// @Success 200 {object} UpdateResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /alerts/{alertID} [put]
func (h *Handler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertID")
	var f alerts.Fields
	if !decodeBody(w, r, &f) {
		return
	}

	aff, err := h.ledger.Update(r.Context(), alertID, f)
	// A partial failure still changed rows; drop cached reads either way.
	h.purgeAlerts()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, UpdateResponse{
		AlertID: alertID, AlertsUpdated: aff.Alerts, HistoryUpdated: aff.History,
	})
}

// DeleteAlert soft-deletes an alert in both stores.
// @Summary Delete alert
// @Description Soft delete; repeating it is a no-op that reports zero rows.
// @Tags alerts
// @Produce json
// @Param alertID path string true "Alert id"
// @Success 200 {object} DeleteResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /alerts/{alertID} [delete]
func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertID")

	aff, err := h.ledger.SoftDelete(r.Context(), alertID)
	h.purgeAlerts()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, DeleteResponse{
		AlertID: alertID, AlertsDeleted: aff.Alerts, HistoryDeleted: aff.History,
	})
}

// GetHistory returns broadcast history, newest first.
// @Summary Notification history
// @Tags notifications
// @Produce json
// @Param limit query int false "Max rows (default 50, max 500)"
// @Success 200 {array} alerts.History
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /notifications/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := alerts.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.WriteError(w, http.StatusBadRequest, respond.CodeValidation, "limit must be a positive integer")
			return
		}
		limit = min(n, alerts.MaxHistoryLimit)
	}

	h.serveCached(w, r, keyHistory+strconv.Itoa(limit), cache.TTLHistory, func() (any, error) {
		return h.ledger.ListHistory(r.Context(), limit)
	})
}
