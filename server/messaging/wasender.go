package messaging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sindi/umshado/shared"
)

const defaultWasenderURL = "https://wasenderapi.com/api/send-message"

type wasenderRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type WasenderProvider struct {
	config  shared.WasenderConfig
	client  *http.Client
	baseURL string
}

func NewWasenderProvider(config shared.WasenderConfig) *WasenderProvider {
	return &WasenderProvider{
		config:  config,
		client:  newHTTPClient(),
		baseURL: defaultWasenderURL,
	}
}

func (provider *WasenderProvider) Name() string {
	return "wasender"
}

// Send posts a bearer-authenticated JSON request. Any 200 counts as
// accepted - the response body is not load-bearing. The API's common
// failure codes are mapped to distinct errors so the logs tell them apart.
func (provider *WasenderProvider) Send(to, message string) error {
	payload, err := json.Marshal(wasenderRequest{To: to, Text: message})
	if err != nil {
		return fmt.Errorf("wasender: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, provider.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("wasender: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+provider.config.ApiToken)

	resp, err := provider.client.Do(req)
	if err != nil {
		return fmt.Errorf("wasender: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("wasender: api token rejected (401)")
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("wasender: validation failed for %v - check the phone format (422)", to)
	case http.StatusTooManyRequests:
		return fmt.Errorf("wasender: rate limited (429)")
	}

	return fmt.Errorf("wasender: unexpected status code %v", resp.StatusCode)
}
