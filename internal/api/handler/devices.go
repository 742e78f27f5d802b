package handler

import (
	"net/http"

	"github.com/albapepper/scoracle-alerts/internal/api/respond"
	"github.com/albapepper/scoracle-alerts/internal/cache"
	"github.com/albapepper/scoracle-alerts/internal/devices"
)

// RegisterResponse is returned by device registration.
type RegisterResponse struct {
	RegistrationID string `json:"registrationId"`
}

// RegisterDevice binds a push destination to an access code.
// @Summary Register device
// @Description Validates the push destination, checks the access code against the registry and upserts the device. Re-registering a code overwrites its destination.
// @Tags devices
// @Accept json
// @Produce json
// @Param body body devices.RegisterRequest true "Registration"
// @Success 200 {object} RegisterResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /devices/register [post]
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req devices.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	regID, err := h.devices.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.cache.Purge(keyDevices)
	respond.WriteJSONObject(w, http.StatusOK, RegisterResponse{RegistrationID: regID})
}

// ListDevices returns every registered device.
// @Summary List devices
// @Tags devices
// @Produce json
// @Success 200 {array} devices.Device
// @Failure 500 {object} respond.ErrorResponse
// @Router /devices [get]
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, keyDevices, cache.TTLDevices, func() (any, error) {
		list, err := h.devices.List(r.Context())
		if list == nil {
			list = []devices.Device{}
		}
		return list, err
	})
}
