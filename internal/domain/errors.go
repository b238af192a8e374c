package domain

import "fmt"

// Error is implemented by every business error the HTTP layer can render.
type Error interface {
	error
	GetCode() string
	GetMessage() string
}

// BusinessError is a coded, caller-visible error.
type BusinessError struct {
	Code    string
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

func (e *BusinessError) GetCode() string {
	return e.Code
}

func (e *BusinessError) GetMessage() string {
	return e.Message
}

// NewBusinessError creates a new coded error
func NewBusinessError(code, message string) *BusinessError {
	return &BusinessError{Code: code, Message: message}
}

var (
	ErrAccountNotFound    = NewBusinessError("A0001", "Account not found")
	ErrDeviceNotFound     = NewBusinessError("A0002", "Device not found")
	ErrAccountConflict    = NewBusinessError("A0003", "Account already registered with this email, username or phone")
	ErrInvalidCredentials = NewBusinessError("A0004", "Invalid credentials")
	ErrNotVerified        = NewBusinessError("A0005", "Please verify your email or phone before logging in")
	ErrOtpNotRequested    = NewBusinessError("A0006", "Please request an OTP first")
	ErrOtpExpired         = NewBusinessError("A0007", "OTP expired, please request a new one")
	ErrOtpInvalid         = NewBusinessError("A0008", "Invalid OTP")
	ErrRateLimited        = NewBusinessError("A0009", "Too many OTP requests, please try again later")
	ErrAlreadyVerified    = NewBusinessError("A0010", "Channel is already verified")
	ErrConfiguration      = NewBusinessError("A0011", "Invalid configuration")
	ErrTransport          = NewBusinessError("A0012", "Failed to deliver notification")
	ErrConcurrentUpdate   = NewBusinessError("A0013", "Account was modified concurrently")
	ErrInvalidToken       = NewBusinessError("A0014", "Invalid or expired token")
	ErrUnauthorized       = NewBusinessError("A0015", "Unauthorized")
	ErrForbidden          = NewBusinessError("A0016", "Forbidden")
	ErrInvalidField       = NewBusinessError("A0017", "Invalid field")
	ErrInvalidRequestBody = NewBusinessError("A0018", "Invalid request body")
	ErrInvalidChannel     = NewBusinessError("A0019", "Channel must be either 'email' or 'phone'")
	ErrInternal           = NewBusinessError("A0020", "Internal server error")
	ErrTooManyRequests    = NewBusinessError("A0021", "Too many requests")
)

// NotVerifiedError is returned by login when no channel is verified yet.
// It tells the caller which channels can still request an OTP.
type NotVerifiedError struct {
	EmailPending bool
	PhonePending bool
}

func (e *NotVerifiedError) Error() string {
	return fmt.Sprintf("%s (email pending: %t, phone pending: %t)", ErrNotVerified.Message, e.EmailPending, e.PhonePending)
}

func (e *NotVerifiedError) GetCode() string {
	return ErrNotVerified.Code
}

func (e *NotVerifiedError) GetMessage() string {
	return ErrNotVerified.Message
}

func (e *NotVerifiedError) Unwrap() error {
	return ErrNotVerified
}
