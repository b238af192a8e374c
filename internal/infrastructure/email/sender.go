package email

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"

	"github.com/ipede/account-trust-service/internal/domain"
	"go.uber.org/zap"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPClient is the part of net/smtp the sender depends on.
type SMTPClient interface {
	SendMail(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type smtpClientFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

func (f smtpClientFunc) SendMail(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	return f(addr, a, from, to, msg)
}

// Sender delivers email over SMTP.
type Sender struct {
	config Config
	client SMTPClient
	logger *zap.Logger
}

func NewSender(cfg Config, logger *zap.Logger) *Sender {
	return NewSenderWithClient(cfg, smtpClientFunc(smtp.SendMail), logger)
}

func NewSenderWithClient(cfg Config, client SMTPClient, logger *zap.Logger) *Sender {
	return &Sender{config: cfg, client: client, logger: logger}
}

// Configured reports whether an SMTP host and sender address are set.
func (s *Sender) Configured() bool {
	return s.config.Host != "" && s.config.From != ""
}

// Send delivers msg. net/smtp has no context support, so ctx is only checked
// before the connection is opened.
func (s *Sender) Send(ctx context.Context, msg domain.EmailMessage) error {
	if !s.Configured() {
		return fmt.Errorf("smtp: host or from address not configured")
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("smtp: invalid recipient: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := s.buildMessage(to.Address, msg)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	err = s.client.SendMail(
		fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		auth,
		s.config.From,
		[]string{to.Address},
		body,
	)
	if err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", to.Address),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return err
	}

	s.logger.Info("Email sent successfully",
		zap.String("to", to.Address),
		zap.String("subject", msg.Subject))
	return nil
}

func (s *Sender) buildMessage(to string, msg domain.EmailMessage) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.config.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		buf.WriteString(msg.Text)
		return buf.Bytes(), nil
	}

	var parts bytes.Buffer
	writer := multipart.NewWriter(&parts)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", writer.Boundary())

	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		w, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	buf.Write(parts.Bytes())
	return buf.Bytes(), nil
}
