package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Config holds the signing material of the issuer. Access and refresh
// credentials are signed with different secrets.
type Config struct {
	AccessSecret    string
	RefreshSecret   string
	AccessDuration  time.Duration
	RefreshDuration time.Duration
}

// AccessClaims is the payload of an access credential.
type AccessClaims struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh credential.
type RefreshClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 credentials.
type Issuer struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

// NewIssuer validates the configuration and creates an issuer. A missing or
// shared secret is a configuration error.
func NewIssuer(cfg Config, logger *zap.Logger) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: access and refresh signing secrets are required", domain.ErrConfiguration)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%w: access and refresh signing secrets must differ", domain.ErrConfiguration)
	}
	if cfg.AccessDuration <= 0 {
		cfg.AccessDuration = domain.DefaultAccessTokenDuration
	}
	if cfg.RefreshDuration <= 0 {
		cfg.RefreshDuration = domain.DefaultRefreshTokenDuration
	}

	return &Issuer{
		accessSecret:    []byte(cfg.AccessSecret),
		refreshSecret:   []byte(cfg.RefreshSecret),
		accessDuration:  cfg.AccessDuration,
		refreshDuration: cfg.RefreshDuration,
		logger:          logger,
		now:             time.Now,
	}, nil
}

// IssueAccess mints a short-lived credential carrying the account id and role.
func (i *Issuer) IssueAccess(accountID ulid.ULID, role domain.Role) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.accessDuration)
	claims := AccessClaims{
		ID:               accountID.String(),
		Role:             role,
		RegisteredClaims: i.registered(accountID, now, expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		i.logger.Error("Failed to sign access token", zap.String("account_id", accountID.String()), zap.Error(err))
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueRefresh mints a long-lived credential carrying only the account id.
func (i *Issuer) IssueRefresh(accountID ulid.ULID) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.refreshDuration)
	claims := RefreshClaims{
		ID:               accountID.String(),
		RegisteredClaims: i.registered(accountID, now, expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		i.logger.Error("Failed to sign refresh token", zap.String("account_id", accountID.String()), zap.Error(err))
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssuePair mints an access and a refresh credential for the account.
func (i *Issuer) IssuePair(accountID ulid.ULID, role domain.Role) (*domain.TokenPair, error) {
	access, accessExp, err := i.IssueAccess(accountID, role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := i.IssueRefresh(accountID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks a credential of the given kind. It never returns an error
// value or panics; a failed verification has OK false and Err set.
func (i *Issuer) Verify(tokenString string, kind domain.TokenKind) (result domain.VerifyResult) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("Recovered while verifying token", zap.Any("panic", r))
			result = domain.VerifyResult{Err: domain.ErrInvalidToken}
		}
	}()

	if tokenString == "" {
		return domain.VerifyResult{Err: domain.ErrInvalidToken}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}

	switch kind {
	case domain.TokenKindAccess:
		claims := &AccessClaims{}
		if _, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc(i.accessSecret), opts...); err != nil {
			return i.failure(kind, err)
		}
		if !claims.Role.Valid() {
			return i.failure(kind, errors.New("unknown role"))
		}
		return i.success(claims.ID, claims.Role, claims.RegisteredClaims)
	case domain.TokenKindRefresh:
		claims := &RefreshClaims{}
		if _, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc(i.refreshSecret), opts...); err != nil {
			return i.failure(kind, err)
		}
		return i.success(claims.ID, "", claims.RegisteredClaims)
	default:
		return domain.VerifyResult{Err: domain.ErrInvalidToken}
	}
}

func (i *Issuer) registered(accountID ulid.ULID, now, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   accountID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        ulid.Make().String(),
	}
}

func (i *Issuer) keyFunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}
}

func (i *Issuer) success(id string, role domain.Role, rc jwt.RegisteredClaims) domain.VerifyResult {
	if _, err := ulid.Parse(id); err != nil {
		return domain.VerifyResult{Err: domain.ErrInvalidToken}
	}
	claims := &domain.Claims{AccountID: id, Role: role, TokenID: rc.ID}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return domain.VerifyResult{OK: true, Claims: claims}
}

func (i *Issuer) failure(kind domain.TokenKind, err error) domain.VerifyResult {
	i.logger.Debug("Token verification failed", zap.String("kind", string(kind)), zap.Error(err))
	return domain.VerifyResult{Err: domain.ErrInvalidToken}
}
