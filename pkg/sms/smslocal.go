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
)

const defaultTimeout = 15 * time.Second

// SMSLocalGateway sends transactional text through the SMS Local bulk API.
type SMSLocalGateway struct {
	APIKey      string
	BaseURL     string
	Sender      string
	CountryCode string
	HTTPClient  *http.Client
}

func NewSMSLocalGateway(apiKey, baseURL, sender, countryCode string, timeout time.Duration) *SMSLocalGateway {
	if baseURL == "" {
		baseURL = "https://www.smslocal.com/dev/bulkV2"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SMSLocalGateway{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Sender:      sender,
		CountryCode: countryCode,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

// Send posts the message. The API wants digits only, so the "+" is dropped.
func (c *SMSLocalGateway) Send(ctx context.Context, recipient, message string) error {
	if c.APIKey == "" {
		return ErrNotConfigured
	}
	body := map[string]interface{}{
		"route":   "q",
		"numbers": strings.TrimPrefix(E164(c.CountryCode, recipient), "+"),
		"message": message,
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
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
