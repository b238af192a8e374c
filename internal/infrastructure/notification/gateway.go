package notification

import (
	"context"
	"fmt"

	"github.com/ipede/account-trust-service/internal/domain"
	"go.uber.org/zap"
)

// EmailSender delivers a single email.
type EmailSender interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

// SmsSender delivers a single text message.
type SmsSender interface {
	Send(ctx context.Context, msg domain.SmsMessage) error
}

// Gateway routes messages to the email and SMS transports and reports every
// failure as domain.ErrTransport.
type Gateway struct {
	email  EmailSender
	sms    SmsSender
	logger *zap.Logger
}

func NewGateway(email EmailSender, sms SmsSender, logger *zap.Logger) *Gateway {
	return &Gateway{email: email, sms: sms, logger: logger}
}

func (g *Gateway) SendEmail(ctx context.Context, msg domain.EmailMessage) error {
	if g.email == nil {
		return fmt.Errorf("%w: email transport not configured", domain.ErrTransport)
	}
	if err := g.email.Send(ctx, msg); err != nil {
		g.logger.Warn("email delivery failed", zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return nil
}

func (g *Gateway) SendSms(ctx context.Context, msg domain.SmsMessage) error {
	if g.sms == nil {
		return fmt.Errorf("%w: sms transport not configured", domain.ErrTransport)
	}
	if err := g.sms.Send(ctx, msg); err != nil {
		g.logger.Warn("sms delivery failed", zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return nil
}
