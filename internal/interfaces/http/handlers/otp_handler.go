package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ipede/account-trust-service/internal/application"
	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/ipede/account-trust-service/internal/interfaces/http/dto"
	httperrors "github.com/ipede/account-trust-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

type OtpRequester interface {
	RequestOtp(ctx context.Context, channel domain.Channel, identifier string) error
}

type OtpVerifier interface {
	VerifyOtp(ctx context.Context, channel domain.Channel, identifier, code string) (*domain.Account, error)
}

// OtpHandler handles OTP requests and verification for both channels
type OtpHandler struct {
	requester OtpRequester
	verifier  OtpVerifier
	logger    *zap.Logger
}

func NewOtpHandler(requester OtpRequester, verifier OtpVerifier, logger *zap.Logger) *OtpHandler {
	return &OtpHandler{
		requester: requester,
		verifier:  verifier,
		logger:    logger,
	}
}

// RequestHandler godoc
// @Summary Request an OTP
// @Tags otp
// @Accept json
// @Produce json
// @Param channel path string true "email or phone"
// @Param request body dto.OtpRequest true "Account identifier"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /api/auth/otp/{channel}/request [post]
func (h *OtpHandler) RequestHandler(w http.ResponseWriter, r *http.Request) {
	channel, err := domain.ParseChannel(chi.URLParam(r, "channel"))
	if err != nil {
		httperrors.RespondWithError(w, err)
		return
	}

	var req dto.OtpRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.requester.RequestOtp(r.Context(), channel, req.Identifier); err != nil {
		respondError(w, h.logger, "failed to request otp", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.MessageResponse{Message: "OTP sent to " + string(channel)})
}

// VerifyHandler godoc
// @Summary Verify an OTP
// @Tags otp
// @Accept json
// @Produce json
// @Param channel path string true "email or phone"
// @Param request body dto.OtpVerifyRequest true "Identifier and code"
// @Success 200 {object} dto.VerifyOtpResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 410 {object} errors.ErrorResponse
// @Router /api/auth/otp/{channel}/verify [post]
func (h *OtpHandler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	channel, err := domain.ParseChannel(chi.URLParam(r, "channel"))
	if err != nil {
		httperrors.RespondWithError(w, err)
		return
	}

	var req dto.OtpVerifyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	account, err := h.verifier.VerifyOtp(r.Context(), channel, req.Identifier, req.Otp)
	if err != nil {
		respondError(w, h.logger, "failed to verify otp", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.VerifyOtpResponse{
		Message: string(channel) + " verified",
		Account: dto.NewAccountResponse(account),
	})
}

// UnifiedVerifyHandler godoc
// @Summary Verify an OTP with the channel in the body
// @Description Failures carry a reason: USER_NOT_FOUND, OTP_NOT_REQUESTED, EXPIRED, INVALID or UNKNOWN
// @Tags otp
// @Accept json
// @Produce json
// @Param request body dto.UnifiedVerifyRequest true "Channel, identifier and code"
// @Success 200 {object} dto.UnifiedVerifyResponse
// @Failure 400 {object} dto.UnifiedVerifyResponse
// @Router /api/auth/otp/verify [post]
func (h *OtpHandler) UnifiedVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req dto.UnifiedVerifyRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	channel, err := domain.ParseChannel(req.Type)
	if err != nil {
		httperrors.RespondWithError(w, err)
		return
	}

	account, err := h.verifier.VerifyOtp(r.Context(), channel, req.Identifier, req.Otp)
	if err != nil {
		reason := application.VerifyReason(err)
		if reason == application.ReasonUnknown {
			respondError(w, h.logger, "failed to verify otp", err)
			return
		}
		respondJSON(w, h.logger, httperrors.StatusOf(err), dto.UnifiedVerifyResponse{
			Success: false,
			Message: httperrors.Resolve(err).GetMessage(),
			Reason:  reason,
		})
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.UnifiedVerifyResponse{
		Success: true,
		Message: string(channel) + " verified",
		Account: dto.NewAccountResponse(account),
	})
}
