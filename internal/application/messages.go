package application

import (
	"fmt"
	"html"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
)

func otpEmail(to, code, appName string, ttl time.Duration) domain.EmailMessage {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return domain.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Your %s verification code", appName),
		Text:    fmt.Sprintf("Your OTP is %s. It is valid for %d minutes.", code, minutes),
		HTML: fmt.Sprintf("<p>Your OTP is <b>%s</b>.</p><p>It is valid for %d minutes.</p>",
			html.EscapeString(code), minutes),
	}
}

func otpSms(to, code, appName string) domain.SmsMessage {
	return domain.SmsMessage{
		To:   to,
		Text: fmt.Sprintf("Your %s phone verification code is %s", appName, code),
	}
}
