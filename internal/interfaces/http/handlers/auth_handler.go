package handlers

import (
	"context"
	"net/http"

	"github.com/ipede/account-trust-service/internal/application"
	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/ipede/account-trust-service/internal/interfaces/http/dto"
	httperrors "github.com/ipede/account-trust-service/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, in application.RegisterInput) (*application.RegisterResult, error)
	Login(ctx context.Context, in application.LoginInput) (*application.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Me(ctx context.Context, accountID ulid.ULID) (*domain.Account, error)
}

// AuthHandler handles registration, login and credential refresh
type AuthHandler struct {
	authService AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterHandler godoc
// @Summary Register a new account
// @Description Creates an unverified account and sends an OTP to its email and phone
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.RegisterResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), application.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		respondError(w, h.logger, "failed to register account", err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, dto.NewRegisterResponse(result))
}

// LoginHandler godoc
// @Summary Log in
// @Description Authenticates by email, username or phone and records the login device
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), application.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		Device: application.LoginDevice{
			DeviceID:       req.DeviceID,
			UserAgent:      r.UserAgent(),
			IP:             clientIP(r),
			RememberDevice: req.RememberDevice,
		},
	})
	if err != nil {
		respondError(w, h.logger, "failed to log in", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.NewLoginResponse(result))
}

// RefreshHandler godoc
// @Summary Refresh credentials
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest true "Refresh credential"
// @Success 200 {object} domain.TokenPair
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, h.logger, "failed to refresh credentials", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, tokens)
}

// MeHandler godoc
// @Summary Current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		httperrors.RespondWithError(w, domain.ErrUnauthorized)
		return
	}

	account, err := h.authService.Me(r.Context(), principal.AccountID)
	if err != nil {
		respondError(w, h.logger, "failed to load account", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.NewAccountResponse(account))
}
