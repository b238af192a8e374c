package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Phone    string
	Role     domain.Role
}

// OtpDelivery reports the dispatch outcome of each channel at registration.
// A nil error means the code was sent.
type OtpDelivery struct {
	Email error
	Phone error
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	Account  *domain.Account
	Tokens   *domain.TokenPair
	Delivery OtpDelivery
}

// LoginInput carries credentials and the client device of a login request.
type LoginInput struct {
	Identifier string
	Password   string
	Device     LoginDevice
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Account     *domain.Account
	Tokens      *domain.TokenPair
	IsNewDevice bool
	Device      *domain.DeviceRecord
}

// AuthService sequences registration, login and OTP verification.
type AuthService struct {
	repo         domain.AccountRepository
	verification *VerificationService
	devices      *DeviceTrustTracker
	issuer       domain.CredentialIssuer
	hasher       domain.PasswordHasher
	countryCode  string
	logger       *zap.Logger
	now          func() time.Time
}

func NewAuthService(
	repo domain.AccountRepository,
	verification *VerificationService,
	devices *DeviceTrustTracker,
	issuer domain.CredentialIssuer,
	hasher domain.PasswordHasher,
	countryCode string,
	logger *zap.Logger,
) *AuthService {
	if countryCode == "" {
		countryCode = domain.DefaultCountryCode
	}
	return &AuthService{
		repo:         repo,
		verification: verification,
		devices:      devices,
		issuer:       issuer,
		hasher:       hasher,
		countryCode:  countryCode,
		logger:       logger,
		now:          time.Now,
	}
}

// Register creates an unverified account, sends an OTP on both channels and
// issues a credential pair. Delivery failures are reported, not rolled back.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	email := domain.NormalizeEmail(in.Email)
	username := domain.NormalizeUsername(in.Username)
	phone := domain.NormalizePhone(in.Phone, s.countryCode)
	if email == "" || username == "" || phone == "" || in.Password == "" {
		return nil, domain.ErrInvalidField
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidField
	}

	exists, err := s.repo.ExistsByAnyOf(ctx, email, username, phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAccountConflict
	}

	passwordHash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, domain.ErrInternal
	}

	account := domain.NewAccount(username, email, phone, passwordHash, role, s.now())
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}
	s.logger.Info("account registered", zap.String("account_id", account.ID.String()))

	var (
		delivery OtpDelivery
		updated  *domain.Account
	)
	if updated, delivery.Email = s.verification.SendOtp(ctx, account, domain.ChannelEmail); updated != nil {
		account = updated
	}
	if updated, delivery.Phone = s.verification.SendOtp(ctx, account, domain.ChannelPhone); updated != nil {
		account = updated
	}

	tokens, err := s.issuer.IssuePair(account.ID, account.Role)
	if err != nil {
		s.logger.Error("failed to issue tokens", zap.String("account_id", account.ID.String()), zap.Error(err))
		return nil, domain.ErrInternal
	}

	return &RegisterResult{Account: account, Tokens: tokens, Delivery: delivery}, nil
}

// Login authenticates by email, username or phone. Unknown identifiers and
// wrong passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	var phone string
	if domain.LooksLikePhone(identifier) {
		phone = domain.NormalizePhone(identifier, s.countryCode)
	}

	account, err := s.repo.FindByEmailOrUsernameOrPhone(ctx, strings.ToLower(identifier), phone)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.CheckPassword(in.Password, account.PasswordHash); err != nil {
		s.logger.Info("login rejected", zap.String("account_id", account.ID.String()))
		return nil, domain.ErrInvalidCredentials
	}

	if !account.IsVerified {
		return nil, &domain.NotVerifiedError{
			EmailPending: !account.IsEmailVerified,
			PhonePending: !account.IsPhoneVerified,
		}
	}

	reconciled, err := s.devices.ReconcileLogin(ctx, account, in.Device)
	if err != nil {
		return nil, err
	}
	account = reconciled.Account

	tokens, err := s.issuer.IssuePair(account.ID, account.Role)
	if err != nil {
		s.logger.Error("failed to issue tokens", zap.String("account_id", account.ID.String()), zap.Error(err))
		return nil, domain.ErrInternal
	}

	s.logger.Info("login succeeded",
		zap.String("account_id", account.ID.String()),
		zap.Bool("new_device", reconciled.IsNewDevice))
	return &LoginResult{
		Account:     account,
		Tokens:      tokens,
		IsNewDevice: reconciled.IsNewDevice,
		Device:      reconciled.Device,
	}, nil
}

// VerifyOtp consumes a code on the named channel.
func (s *AuthService) VerifyOtp(ctx context.Context, channel domain.Channel, identifier, code string) (*domain.Account, error) {
	return s.verification.VerifyOtp(ctx, channel, identifier, code)
}

// Refresh exchanges a refresh credential for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	result := s.issuer.Verify(refreshToken, domain.TokenKindRefresh)
	if !result.OK {
		return nil, domain.ErrInvalidToken
	}
	id, err := ulid.Parse(result.Claims.AccountID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	tokens, err := s.issuer.IssuePair(account.ID, account.Role)
	if err != nil {
		s.logger.Error("failed to issue tokens", zap.String("account_id", account.ID.String()), zap.Error(err))
		return nil, domain.ErrInternal
	}
	return tokens, nil
}

// Me returns the account of an authenticated principal.
func (s *AuthService) Me(ctx context.Context, accountID ulid.ULID) (*domain.Account, error) {
	return s.repo.FindByID(ctx, accountID)
}

// Verification reason codes reported by unified OTP verification.
const (
	ReasonUserNotFound    = "USER_NOT_FOUND"
	ReasonOtpNotRequested = "OTP_NOT_REQUESTED"
	ReasonExpired         = "EXPIRED"
	ReasonInvalid         = "INVALID"
	ReasonUnknown         = "UNKNOWN"
)

// VerifyReason maps a verification error to its reason code.
func VerifyReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return ReasonUserNotFound
	case errors.Is(err, domain.ErrOtpNotRequested):
		return ReasonOtpNotRequested
	case errors.Is(err, domain.ErrOtpExpired):
		return ReasonExpired
	case errors.Is(err, domain.ErrOtpInvalid):
		return ReasonInvalid
	default:
		return ReasonUnknown
	}
}
