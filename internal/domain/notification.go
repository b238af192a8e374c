package domain

import "context"

// EmailMessage is an outbound email with text and optional HTML bodies.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// SmsMessage is an outbound text message to a canonical phone number.
type SmsMessage struct {
	To   string
	Text string
}

// NotificationGateway delivers OTP messages. Errors are transport failures.
type NotificationGateway interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
	SendSms(ctx context.Context, msg SmsMessage) error
}
