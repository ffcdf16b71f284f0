// Package sms delivers plain-text messages to mobile numbers.
package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/propertyapp/property-listing/pkg/config"
)

// ErrNotConfigured is returned when a gateway is missing credentials.
var ErrNotConfigured = errors.New("sms: gateway not configured")

// Gateway sends message to recipient. Recipient is a local 10-digit number;
// gateways add the country prefix they need.
type Gateway interface {
	Send(ctx context.Context, recipient, message string) error
}

// E164 prefixes a local number with countryCode unless it already carries one.
func E164(countryCode, recipient string) string {
	recipient = strings.TrimSpace(recipient)
	if strings.HasPrefix(recipient, "+") {
		return recipient
	}
	return countryCode + recipient
}

// New builds the gateway selected by cfg.Provider.
func New(cfg config.SMSConfig) (Gateway, error) {
	switch cfg.Provider {
	case config.SMSProviderTwilio:
		return NewTwilioGateway(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.CountryCode)
	case config.SMSProviderSMSLocal:
		return NewSMSLocalGateway(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender, cfg.CountryCode, cfg.Timeout), nil
	case config.SMSProviderDev, "":
		return NewDevGateway(cfg.CountryCode), nil
	default:
		return nil, fmt.Errorf("sms: unknown provider %q", cfg.Provider)
	}
}
