package domain

import "time"

const (
	DefaultAccessTokenDuration  = 15 * time.Minute
	DefaultRefreshTokenDuration = 7 * 24 * time.Hour
)

// TokenKind distinguishes the two credential trust domains.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Claims is the verified payload of a credential. Role is empty for refresh tokens.
type Claims struct {
	AccountID string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

// VerifyResult is the outcome of verifying a credential. Verification never
// panics or returns an error value; failures are reported through OK and Err.
type VerifyResult struct {
	OK     bool
	Claims *Claims
	Err    error
}

// AuthenticatedPrincipal is the caller identity resolved from an access credential.
type AuthenticatedPrincipal struct {
	AccountID ULID
	Role      Role
}

// HasRole reports whether the principal carries the given role.
func (p *AuthenticatedPrincipal) HasRole(role Role) bool {
	return p != nil && p.Role == role
}
