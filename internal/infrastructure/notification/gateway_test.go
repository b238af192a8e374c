package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type MockSmsSender struct {
	mock.Mock
}

func (m *MockSmsSender) Send(ctx context.Context, msg domain.SmsMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func TestGateway_SendEmail(t *testing.T) {
	ctx := context.Background()
	msg := domain.EmailMessage{To: "a@x.com", Subject: "s", Text: "t"}

	t.Run("delivered", func(t *testing.T) {
		sender := new(MockEmailSender)
		sender.On("Send", ctx, msg).Return(nil)

		err := NewGateway(sender, nil, zap.NewNop()).SendEmail(ctx, msg)
		assert.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("failure is a transport error", func(t *testing.T) {
		sender := new(MockEmailSender)
		sender.On("Send", ctx, msg).Return(errors.New("dial tcp: refused"))

		err := NewGateway(sender, nil, zap.NewNop()).SendEmail(ctx, msg)
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.Contains(t, err.Error(), "refused")

		var domainErr domain.Error
		assert.True(t, errors.As(err, &domainErr))
		assert.Equal(t, domain.ErrTransport.Code, domainErr.GetCode())
	})

	t.Run("missing transport", func(t *testing.T) {
		err := NewGateway(nil, nil, zap.NewNop()).SendEmail(ctx, msg)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestGateway_SendSms(t *testing.T) {
	ctx := context.Background()
	msg := domain.SmsMessage{To: "+911", Text: "t"}

	t.Run("delivered", func(t *testing.T) {
		sender := new(MockSmsSender)
		sender.On("Send", ctx, msg).Return(nil)

		assert.NoError(t, NewGateway(nil, sender, zap.NewNop()).SendSms(ctx, msg))
		sender.AssertExpectations(t)
	})

	t.Run("failure is a transport error", func(t *testing.T) {
		sender := new(MockSmsSender)
		sender.On("Send", ctx, msg).Return(errors.New("status=500"))

		err := NewGateway(nil, sender, zap.NewNop()).SendSms(ctx, msg)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("missing transport", func(t *testing.T) {
		assert.ErrorIs(t, NewGateway(nil, nil, zap.NewNop()).SendSms(ctx, msg), domain.ErrTransport)
	})
}
