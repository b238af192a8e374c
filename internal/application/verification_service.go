package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/ipede/account-trust-service/internal/infrastructure/otp"
	"go.uber.org/zap"
)

// OtpConfig bounds OTP issuance per channel and account.
type OtpConfig struct {
	TTL                time.Duration
	MaxRequests        int
	RequestWindow      time.Duration
	Digits             int
	DefaultCountryCode string
	AppName            string
}

// DefaultOtpConfig returns a 6-digit, 5-minute code limited to 5 requests per hour.
func DefaultOtpConfig() OtpConfig {
	return OtpConfig{
		TTL:                5 * time.Minute,
		MaxRequests:        5,
		RequestWindow:      time.Hour,
		Digits:             otp.DefaultDigits,
		DefaultCountryCode: domain.DefaultCountryCode,
		AppName:            "Account Trust",
	}
}

// VerificationService issues and consumes OTPs on the email and phone channels.
type VerificationService struct {
	repo     domain.AccountRepository
	notifier domain.NotificationGateway
	codec    *otp.Codec
	config   OtpConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewVerificationService(repo domain.AccountRepository, notifier domain.NotificationGateway, codec *otp.Codec, cfg OtpConfig, logger *zap.Logger) *VerificationService {
	return &VerificationService{
		repo:     repo,
		notifier: notifier,
		codec:    codec,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// RequestOtp sends a fresh code to the account identified on the channel.
func (s *VerificationService) RequestOtp(ctx context.Context, channel domain.Channel, identifier string) error {
	account, err := s.resolve(ctx, channel, identifier)
	if err != nil {
		return err
	}
	_, err = s.SendOtp(ctx, account, channel)
	return err
}

// SendOtp stores a new code digest on the account and dispatches the code.
// The stored state is kept when delivery fails; a retry issues a new code.
func (s *VerificationService) SendOtp(ctx context.Context, account *domain.Account, channel domain.Channel) (*domain.Account, error) {
	code, err := s.codec.GenerateCode(s.config.Digits)
	if err != nil {
		return nil, domain.ErrInternal
	}
	digest := s.codec.HashCode(code)

	updated, err := updateAccount(ctx, s.repo, account, func(a *domain.Account) (bool, error) {
		if a.ChannelVerified(channel) {
			return false, domain.ErrAlreadyVerified
		}

		now := s.now()
		slot := a.Slot(channel)
		if slot.RequestWindowStart == nil || now.Sub(*slot.RequestWindowStart) > s.config.RequestWindow {
			slot.RequestWindowStart = &now
			slot.RequestCount = 0
		}
		if slot.RequestCount >= s.config.MaxRequests {
			return false, domain.ErrRateLimited
		}
		slot.RequestCount++

		slot.Set(digest, s.codec.ExpiryAt(now, s.config.TTL))
		a.SetChannelVerified(channel, false)
		return true, nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyVerified) && !errors.Is(err, domain.ErrRateLimited) {
			s.logger.Error("failed to store otp",
				zap.String("account_id", account.ID.String()),
				zap.String("channel", string(channel)),
				zap.Error(err))
		}
		return updated, err
	}

	if err := s.deliver(ctx, updated, channel, code); err != nil {
		s.logger.Warn("otp stored but not delivered",
			zap.String("account_id", updated.ID.String()),
			zap.String("channel", string(channel)),
			zap.Error(err))
		return updated, err
	}

	s.logger.Info("otp sent",
		zap.String("account_id", updated.ID.String()),
		zap.String("channel", string(channel)))
	return updated, nil
}

// VerifyOtp consumes a code. On success the channel is verified and pending
// codes on every channel are cleared.
func (s *VerificationService) VerifyOtp(ctx context.Context, channel domain.Channel, identifier, code string) (*domain.Account, error) {
	account, err := s.resolve(ctx, channel, identifier)
	if err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	updated, err := updateAccount(ctx, s.repo, account, func(a *domain.Account) (bool, error) {
		slot := a.Slot(channel)
		if !slot.Pending() {
			return false, domain.ErrOtpNotRequested
		}
		if !s.now().Before(*slot.ExpiresAt) {
			slot.Clear()
			return true, domain.ErrOtpExpired
		}
		if !s.codec.Matches(code, slot.CodeHash) {
			return false, domain.ErrOtpInvalid
		}

		a.SetChannelVerified(channel, true)
		a.ClearAllOtps()
		return true, nil
	})
	if err != nil {
		s.logger.Info("otp verification failed",
			zap.String("account_id", account.ID.String()),
			zap.String("channel", string(channel)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("channel verified",
		zap.String("account_id", updated.ID.String()),
		zap.String("channel", string(channel)))
	return updated, nil
}

func (s *VerificationService) resolve(ctx context.Context, channel domain.Channel, identifier string) (*domain.Account, error) {
	switch channel {
	case domain.ChannelEmail:
		email := domain.NormalizeEmail(identifier)
		if email == "" {
			return nil, domain.ErrAccountNotFound
		}
		return s.repo.FindByEmail(ctx, email)
	case domain.ChannelPhone:
		phone := domain.NormalizePhone(identifier, s.config.DefaultCountryCode)
		if phone == "" {
			return nil, domain.ErrAccountNotFound
		}
		return s.repo.FindByPhone(ctx, phone)
	default:
		return nil, domain.ErrInvalidChannel
	}
}

func (s *VerificationService) deliver(ctx context.Context, account *domain.Account, channel domain.Channel, code string) error {
	if channel == domain.ChannelPhone {
		return s.notifier.SendSms(ctx, otpSms(account.Phone, code, s.config.AppName))
	}
	return s.notifier.SendEmail(ctx, otpEmail(account.Email, code, s.config.AppName, s.config.TTL))
}
