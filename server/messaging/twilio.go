package messaging

import (
	"fmt"

	"github.com/sindi/umshado/shared"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioProvider struct {
	client   *twilio.RestClient
	config   shared.TwilioConfig
	testMode bool
}

// NewTwilioProvider wraps the official client. With testMode no API
// calls are made & every send reports success.
func NewTwilioProvider(config shared.TwilioConfig, testMode bool) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.RestClientParams{
		Username: config.AccountSid,
		Password: config.AuthToken,
	})

	return &TwilioProvider{
		client:   client,
		config:   config,
		testMode: testMode,
	}
}

func (provider *TwilioProvider) Name() string {
	return "twilio"
}

// Send submits the message through Twilio's messaging service. Success
// is the client call returning without error.
func (provider *TwilioProvider) Send(to, message string) error {
	if provider.testMode {
		return nil
	}

	params := &openapi.CreateMessageParams{}
	params.SetMessagingServiceSid(provider.config.MessagingServiceSid)
	params.SetTo("whatsapp:" + to)
	params.SetBody(message)

	resp, err := provider.client.ApiV2010.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio: %v", err)
	}

	if resp.ErrorMessage != nil && *resp.ErrorMessage != "" {
		logg.Warnf("twilio accepted message for %v with error detail: %v", to, *resp.ErrorMessage)
	}

	return nil
}
