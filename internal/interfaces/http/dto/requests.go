package dto

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// LoginRequest represents the login payload. Identifier is an email,
// username or phone number.
type LoginRequest struct {
	Identifier     string `json:"identifier" validate:"required"`
	Password       string `json:"password" validate:"required"`
	DeviceID       string `json:"deviceId" validate:"omitempty,max=128"`
	RememberDevice bool   `json:"rememberDevice"`
}

// RefreshRequest represents the refresh payload
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// OtpRequest asks for a code on the channel named in the path
type OtpRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

// OtpVerifyRequest submits a code on the channel named in the path
type OtpVerifyRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Otp        string `json:"otp" validate:"required,numeric"`
}

// UnifiedVerifyRequest submits a code with the channel in the body
type UnifiedVerifyRequest struct {
	Type       string `json:"type" validate:"required,oneof=email phone"`
	Identifier string `json:"identifier" validate:"required"`
	Otp        string `json:"otp" validate:"required,numeric"`
}

// DeviceTrustRequest sets the trust flag of a device
type DeviceTrustRequest struct {
	IsTrusted *bool `json:"isTrusted" validate:"required"`
}
