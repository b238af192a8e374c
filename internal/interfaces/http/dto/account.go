package dto

import (
	"time"

	"github.com/ipede/account-trust-service/internal/application"
	"github.com/ipede/account-trust-service/internal/domain"
)

// AccountResponse is the sanitized view of an account. It never carries the
// password hash, OTP state or reset-password fields.
type AccountResponse struct {
	ID              string           `json:"id"`
	Username        string           `json:"username"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	Role            domain.Role      `json:"role"`
	IsEmailVerified bool             `json:"isEmailVerified"`
	IsPhoneVerified bool             `json:"isPhoneVerified"`
	IsVerified      bool             `json:"isVerified"`
	Devices         []DeviceResponse `json:"devices"`
	LastLoginAt     *time.Time       `json:"lastLoginAt"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// DeviceResponse represents a known login device
type DeviceResponse struct {
	DeviceID     string    `json:"deviceId"`
	UserAgent    string    `json:"userAgent"`
	IP           string    `json:"ip"`
	IsTrusted    bool      `json:"isTrusted"`
	FirstLoginAt time.Time `json:"firstLoginAt"`
	LastLoginAt  time.Time `json:"lastLoginAt"`
}

func NewAccountResponse(account *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:              account.ID.String(),
		Username:        account.Username,
		Email:           account.Email,
		Phone:           account.Phone,
		Role:            account.Role,
		IsEmailVerified: account.IsEmailVerified,
		IsPhoneVerified: account.IsPhoneVerified,
		IsVerified:      account.IsVerified,
		Devices:         NewDeviceResponses(account.Devices),
		LastLoginAt:     account.LastLoginAt,
		CreatedAt:       account.CreatedAt,
		UpdatedAt:       account.UpdatedAt,
	}
}

func NewDeviceResponse(device domain.DeviceRecord) DeviceResponse {
	return DeviceResponse{
		DeviceID:     device.DeviceID,
		UserAgent:    device.UserAgent,
		IP:           device.IP,
		IsTrusted:    device.IsTrusted,
		FirstLoginAt: device.FirstLoginAt,
		LastLoginAt:  device.LastLoginAt,
	}
}

func NewDeviceResponses(devices []domain.DeviceRecord) []DeviceResponse {
	out := make([]DeviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, NewDeviceResponse(d))
	}
	return out
}

// Delivery states reported per channel after registration.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// OtpDeliveryResponse reports whether each registration OTP was dispatched.
type OtpDeliveryResponse struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// RegisterResponse is returned with 201 after registration
type RegisterResponse struct {
	Account     *AccountResponse    `json:"account"`
	Tokens      *domain.TokenPair   `json:"tokens"`
	OtpDelivery OtpDeliveryResponse `json:"otpDelivery"`
}

func NewRegisterResponse(result *application.RegisterResult) *RegisterResponse {
	return &RegisterResponse{
		Account: NewAccountResponse(result.Account),
		Tokens:  result.Tokens,
		OtpDelivery: OtpDeliveryResponse{
			Email: deliveryState(result.Delivery.Email),
			Phone: deliveryState(result.Delivery.Phone),
		},
	}
}

func deliveryState(err error) string {
	if err != nil {
		return DeliveryFailed
	}
	return DeliverySent
}

// DeviceInfo describes the login device. DeviceID and IsTrusted are null when
// the login carried no device id.
type DeviceInfo struct {
	IsNewDevice bool    `json:"isNewDevice"`
	DeviceID    *string `json:"deviceId"`
	IsTrusted   *bool   `json:"isTrusted"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Account    *AccountResponse  `json:"account"`
	Tokens     *domain.TokenPair `json:"tokens"`
	DeviceInfo DeviceInfo        `json:"deviceInfo"`
}

func NewLoginResponse(result *application.LoginResult) *LoginResponse {
	info := DeviceInfo{IsNewDevice: result.IsNewDevice}
	if result.Device != nil {
		deviceID := result.Device.DeviceID
		trusted := result.Device.IsTrusted
		info.DeviceID = &deviceID
		info.IsTrusted = &trusted
	}
	return &LoginResponse{
		Account:    NewAccountResponse(result.Account),
		Tokens:     result.Tokens,
		DeviceInfo: info,
	}
}

// VerifyOtpResponse is returned after a successful OTP verification
type VerifyOtpResponse struct {
	Message string           `json:"message"`
	Account *AccountResponse `json:"account"`
}

// UnifiedVerifyResponse is returned by the channel-agnostic verify endpoint.
// Reason is set only on failure.
type UnifiedVerifyResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Reason  string           `json:"reason,omitempty"`
	Account *AccountResponse `json:"account,omitempty"`
}

// MessageResponse carries a plain confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}
