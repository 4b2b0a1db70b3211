// Package messaging holds the WhatsApp delivery providers. Exactly one
// provider is constructed at config-load time and injected into the
// invite dispatcher; provider selection never happens per-send.
package messaging

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sindi/umshado/server/logger"
	"github.com/sindi/umshado/shared"
)

const requestTimeout = 15 * time.Second

var (
	ErrUnknownProvider = errors.New("unknown messaging provider")

	logg = logger.NewLogger()
)

// Provider delivers a message to a normalized, '+'-prefixed phone number.
// A nil error means the provider confirmed acceptance.
type Provider interface {
	Name() string
	Send(to, message string) error
}

// NewProvider builds the configured provider. Unknown names fail here,
// at startup, rather than on the send path.
func NewProvider(config shared.ProvidersConfig) (Provider, error) {
	switch config.Active {
	case "authkey":
		return NewAuthkeyProvider(config.Authkey), nil
	case "wasender":
		return NewWasenderProvider(config.Wasender), nil
	case "twilio":
		return NewTwilioProvider(config.Twilio, false), nil
	}

	return nil, fmt.Errorf("%v: %q", ErrUnknownProvider, config.Active)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
