package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/propertyapp/property-listing/pkg/logger"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioGateway sends through the Twilio Messages API.
type TwilioGateway struct {
	api         messageCreator
	from        string
	countryCode string
}

func NewTwilioGateway(accountSID, authToken, from, countryCode string) (*TwilioGateway, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, ErrNotConfigured
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioGateway{api: client.Api, from: from, countryCode: countryCode}, nil
}

func (g *TwilioGateway) Send(ctx context.Context, recipient, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(E164(g.countryCode, recipient))
	params.SetFrom(g.from)
	params.SetBody(message)

	// The Twilio client has no context support; run it aside so ctx still bounds the wait.
	type result struct {
		msg *twilioApi.ApiV2010Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := g.api.CreateMessage(params)
		done <- result{msg, err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("sms: twilio send: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("sms: twilio send: %w", res.err)
		}
		if res.msg != nil && res.msg.Sid != nil {
			logger.DebugContext(ctx, "Twilio message queued", "sid", *res.msg.Sid)
		}
		return nil
	}
}
