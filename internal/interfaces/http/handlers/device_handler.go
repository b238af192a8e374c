package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/ipede/account-trust-service/internal/interfaces/http/dto"
	httperrors "github.com/ipede/account-trust-service/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type DeviceService interface {
	ListDevices(ctx context.Context, accountID ulid.ULID) ([]domain.DeviceRecord, error)
	SetTrust(ctx context.Context, accountID ulid.ULID, deviceID string, isTrusted bool) (*domain.DeviceRecord, error)
	RemoveDevice(ctx context.Context, accountID ulid.ULID, deviceID string) error
}

// DeviceHandler manages the known devices of the authenticated account
type DeviceHandler struct {
	devices DeviceService
	logger  *zap.Logger
}

func NewDeviceHandler(devices DeviceService, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		devices: devices,
		logger:  logger,
	}
}

// ListHandler godoc
// @Summary List known devices
// @Tags devices
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.DeviceResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/auth/devices [get]
func (h *DeviceHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		httperrors.RespondWithError(w, domain.ErrUnauthorized)
		return
	}

	devices, err := h.devices.ListDevices(r.Context(), principal.AccountID)
	if err != nil {
		respondError(w, h.logger, "failed to list devices", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.NewDeviceResponses(devices))
}

// TrustHandler godoc
// @Summary Trust or untrust a device
// @Tags devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param deviceId path string true "Device ID"
// @Param request body dto.DeviceTrustRequest true "Trust flag"
// @Success 200 {object} dto.DeviceResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/auth/devices/{deviceId}/trust [patch]
func (h *DeviceHandler) TrustHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		httperrors.RespondWithError(w, domain.ErrUnauthorized)
		return
	}

	var req dto.DeviceTrustRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	device, err := h.devices.SetTrust(r.Context(), principal.AccountID, chi.URLParam(r, "deviceId"), *req.IsTrusted)
	if err != nil {
		respondError(w, h.logger, "failed to change device trust", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.NewDeviceResponse(*device))
}

// RemoveHandler godoc
// @Summary Forget a device
// @Tags devices
// @Security BearerAuth
// @Param deviceId path string true "Device ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/auth/devices/{deviceId} [delete]
func (h *DeviceHandler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		httperrors.RespondWithError(w, domain.ErrUnauthorized)
		return
	}

	if err := h.devices.RemoveDevice(r.Context(), principal.AccountID, chi.URLParam(r, "deviceId")); err != nil {
		respondError(w, h.logger, "failed to remove device", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
