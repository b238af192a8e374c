package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
)

// DefaultDigits is the length of generated codes.
const DefaultDigits = 6

// Codec generates, hashes and time-bounds one-time codes.
//
// A 6-digit code is not a strong secret on its own. Its protection comes from
// storing only the digest, the short expiry and the per-channel request limit.
type Codec struct {
	logger *zap.Logger
}

// NewCodec creates a new OTP codec
func NewCodec(logger *zap.Logger) *Codec {
	return &Codec{logger: logger}
}

// GenerateCode returns a zero-padded numeric code drawn uniformly from [0, 10^digits).
func (c *Codec) GenerateCode(digits int) (string, error) {
	if digits <= 0 {
		digits = DefaultDigits
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		c.logger.Error("failed to generate otp", zap.Error(err))
		return "", fmt.Errorf("generate otp: %w", err)
	}

	return fmt.Sprintf("%0*s", digits, n.String()), nil
}

// HashCode returns the hex-encoded SHA-256 digest of code.
func (c *Codec) HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// Matches compares the digest of code with a stored digest in constant time.
func (c *Codec) Matches(code, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(c.HashCode(code)), []byte(digest)) == 1
}

// ExpiryAt returns the instant a code issued at from stops being valid.
func (c *Codec) ExpiryAt(from time.Time, ttl time.Duration) time.Time {
	return from.Add(ttl)
}
