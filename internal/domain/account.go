package domain

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULID represents a Universally Unique Lexicographically Sortable Identifier
// @Description A string representation of ULID
// @type string
// @format ulid
type ULID = ulid.ULID

// Role is the authorization role carried by an account and its access credential.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Channel is an identity-proof pathway with its own OTP state.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// ParseChannel converts a raw value into a Channel.
func ParseChannel(raw string) (Channel, error) {
	switch Channel(raw) {
	case ChannelEmail, ChannelPhone:
		return Channel(raw), nil
	}
	return "", ErrInvalidChannel
}

// OtpSlot holds the pending code and request-window state of one channel.
// CodeHash and ExpiresAt are either both set or both unset.
type OtpSlot struct {
	CodeHash           string     `json:"-"`
	ExpiresAt          *time.Time `json:"-"`
	RequestWindowStart *time.Time `json:"-"`
	RequestCount       int        `json:"-"`
}

// Pending reports whether the slot holds a code.
func (s *OtpSlot) Pending() bool {
	return s.CodeHash != "" && s.ExpiresAt != nil
}

// Set stores a code digest and its expiry.
func (s *OtpSlot) Set(codeHash string, expiresAt time.Time) {
	s.CodeHash = codeHash
	s.ExpiresAt = &expiresAt
}

// Clear empties the code; the request window is kept.
func (s *OtpSlot) Clear() {
	s.CodeHash = ""
	s.ExpiresAt = nil
}

// DeviceRecord is a login device known to an account, keyed by DeviceID.
type DeviceRecord struct {
	DeviceID     string    `json:"deviceId"`
	UserAgent    string    `json:"userAgent"`
	IP           string    `json:"ip"`
	IsTrusted    bool      `json:"isTrusted"`
	FirstLoginAt time.Time `json:"firstLoginAt"`
	LastLoginAt  time.Time `json:"lastLoginAt"`
}

// Account is the single mutable record shared by verification, device tracking
// and credential issuance. Version is used for optimistic concurrency control.
type Account struct {
	ID           ulid.ULID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`

	IsEmailVerified bool `json:"isEmailVerified"`
	IsPhoneVerified bool `json:"isPhoneVerified"`
	IsVerified      bool `json:"isVerified"`

	EmailOtp OtpSlot `json:"-"`
	PhoneOtp OtpSlot `json:"-"`

	// Password reset is not implemented; the fields are persisted only.
	ResetPasswordTokenHash string     `json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`

	Devices     []DeviceRecord `json:"devices"`
	LastLoginAt *time.Time     `json:"lastLoginAt"`

	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAccount creates an unverified account with normalized identity fields.
// passwordHash must already be hashed.
func NewAccount(username, email, phone, passwordHash string, role Role, now time.Time) *Account {
	if role == "" {
		role = RoleUser
	}
	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		Username:     username,
		Phone:        phone,
		Role:         role,
		PasswordHash: passwordHash,
		Devices:      []DeviceRecord{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Slot returns the OTP slot of the given channel.
func (a *Account) Slot(c Channel) *OtpSlot {
	if c == ChannelPhone {
		return &a.PhoneOtp
	}
	return &a.EmailOtp
}

// ChannelVerified reports the verified flag of the given channel.
func (a *Account) ChannelVerified(c Channel) bool {
	if c == ChannelPhone {
		return a.IsPhoneVerified
	}
	return a.IsEmailVerified
}

// SetChannelVerified updates one channel flag and recomputes IsVerified.
func (a *Account) SetChannelVerified(c Channel, verified bool) {
	if c == ChannelPhone {
		a.IsPhoneVerified = verified
	} else {
		a.IsEmailVerified = verified
	}
	a.recomputeVerified()
}

func (a *Account) recomputeVerified() {
	a.IsVerified = a.IsEmailVerified || a.IsPhoneVerified
}

// ClearAllOtps empties the code of every channel.
func (a *Account) ClearAllOtps() {
	a.EmailOtp.Clear()
	a.PhoneOtp.Clear()
}

// FindDevice returns the index of the device with the given id, or -1.
func (a *Account) FindDevice(deviceID string) int {
	for i := range a.Devices {
		if a.Devices[i].DeviceID == deviceID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.EmailOtp = a.EmailOtp.clone()
	c.PhoneOtp = a.PhoneOtp.clone()
	c.ResetPasswordExpiresAt = cloneTime(a.ResetPasswordExpiresAt)
	c.LastLoginAt = cloneTime(a.LastLoginAt)
	c.Devices = make([]DeviceRecord, len(a.Devices))
	copy(c.Devices, a.Devices)
	return &c
}

func (s OtpSlot) clone() OtpSlot {
	s.ExpiresAt = cloneTime(s.ExpiresAt)
	s.RequestWindowStart = cloneTime(s.RequestWindowStart)
	return s
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ParseAccountID parses the string form of an account ID.
func ParseAccountID(id string) (ulid.ULID, error) {
	parsedID, err := ulid.Parse(id)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("invalid account id %q: %w", id, err)
	}
	return parsedID, nil
}
