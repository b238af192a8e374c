package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ipede/account-trust-service/internal/domain"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
	Hints   *Hints        `json:"hints,omitempty"`
}

// ErrorDetail represents a validation error detail
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Hints tells an unverified caller which channels can still request an OTP.
type Hints struct {
	CanRequestEmailOtp bool `json:"canRequestEmailOtp"`
	CanRequestPhoneOtp bool `json:"canRequestPhoneOtp"`
}

func getStatus(err domain.Error) int {
	switch err.GetCode() {
	case domain.ErrAccountNotFound.GetCode(),
		domain.ErrDeviceNotFound.GetCode():
		return http.StatusNotFound
	case domain.ErrAccountConflict.GetCode():
		return http.StatusConflict
	case domain.ErrInvalidCredentials.GetCode(),
		domain.ErrInvalidToken.GetCode(),
		domain.ErrUnauthorized.GetCode():
		return http.StatusUnauthorized
	case domain.ErrNotVerified.GetCode(),
		domain.ErrForbidden.GetCode():
		return http.StatusForbidden
	case domain.ErrOtpExpired.GetCode():
		return http.StatusGone
	case domain.ErrRateLimited.GetCode(),
		domain.ErrTooManyRequests.GetCode():
		return http.StatusTooManyRequests
	case domain.ErrTransport.GetCode():
		return http.StatusBadGateway
	case domain.ErrInternal.GetCode(),
		domain.ErrConfiguration.GetCode(),
		domain.ErrConcurrentUpdate.GetCode():
		return http.StatusInternalServerError
	}

	return http.StatusBadRequest
}

// StatusOf returns the HTTP status an error is rendered with.
func StatusOf(err error) int {
	return getStatus(Resolve(err))
}

// Resolve finds the business error carried by err. Errors outside the
// taxonomy resolve to domain.ErrInternal.
func Resolve(err error) domain.Error {
	var notVerified *domain.NotVerifiedError
	if errors.As(err, &notVerified) {
		return notVerified
	}
	var business *domain.BusinessError
	if errors.As(err, &business) {
		return business
	}
	return domain.ErrInternal
}

// RespondWithError sends a standardized error response
func RespondWithError(w http.ResponseWriter, err error) {
	resolved := Resolve(err)
	body := ErrorResponse{
		Code:    resolved.GetCode(),
		Message: resolved.GetMessage(),
	}
	if notVerified, ok := resolved.(*domain.NotVerifiedError); ok {
		body.Hints = &Hints{
			CanRequestEmailOtp: notVerified.EmailPending,
			CanRequestPhoneOtp: notVerified.PhonePending,
		}
	}
	write(w, getStatus(resolved), body)
}

// RespondErrorWithDetails sends a standardized error response with details
func RespondErrorWithDetails(w http.ResponseWriter, err domain.Error, details []ErrorDetail) {
	write(w, getStatus(err), ErrorResponse{
		Code:    err.GetCode(),
		Message: err.GetMessage(),
		Details: details,
	})
}

func write(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
