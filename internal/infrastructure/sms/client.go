package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 15 * time.Second
	defaultBaseURL = "https://www.smslocal.com/dev/bulkV2"
	maxErrorBody   = 512
)

// Client sends text messages through an HTTP SMS gateway.
type Client struct {
	APIKey     string
	BaseURL    string
	Sender     string
	HTTPClient *http.Client
	logger     *zap.Logger
}

// NewClient returns a client that uses the given API key and optional base URL/sender.
func NewClient(apiKey, baseURL, sender string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.APIKey != ""
}

// Send delivers msg. The gateway expects digits only, so the leading "+" of
// the canonical number is dropped. The message text is never logged.
func (c *Client) Send(ctx context.Context, msg domain.SmsMessage) error {
	if !c.Configured() {
		return fmt.Errorf("sms: API key not configured")
	}
	numbers := strings.TrimPrefix(msg.To, "+")
	if numbers == "" {
		return fmt.Errorf("sms: recipient is required")
	}
	if msg.Text == "" {
		return fmt.Errorf("sms: text is required")
	}

	body := map[string]interface{}{
		"route":   "transactional",
		"numbers": numbers,
		"message": msg.Text,
	}
	if c.Sender != "" {
		body["sender_id"] = c.Sender
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Error("SMS request failed", zap.String("to", msg.To), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("SMS gateway rejected message",
			zap.String("to", msg.To),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}

	c.logger.Info("SMS sent successfully", zap.String("to", msg.To))
	return nil
}
