package domain

import "github.com/oklog/ulid/v2"

// CredentialIssuer mints and verifies access and refresh credentials.
type CredentialIssuer interface {
	IssuePair(accountID ulid.ULID, role Role) (*TokenPair, error)
	Verify(token string, kind TokenKind) VerifyResult
}

// PasswordHasher is an opaque one-way hash and check capability.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	CheckPassword(password, hash string) error
}
