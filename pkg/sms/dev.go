package sms

import (
	"context"
	"fmt"

	"github.com/propertyapp/property-listing/pkg/logger"
)

// DevGateway prints messages instead of sending them.
type DevGateway struct {
	countryCode string
}

func NewDevGateway(countryCode string) *DevGateway {
	return &DevGateway{countryCode: countryCode}
}

func (d *DevGateway) Send(ctx context.Context, recipient, message string) error {
	to := E164(d.countryCode, recipient)
	logger.InfoContext(ctx, "[DEV SMS] message", "to", to, "length", len(message))

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"SMS (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		to, message)

	return nil
}
