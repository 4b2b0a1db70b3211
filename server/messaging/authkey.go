package messaging

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sindi/umshado/shared"
)

const defaultAuthkeyURL = "https://api.authkey.io/request"

type authkeyResponse struct {
	Status  string `json:"Status"`
	Message string `json:"Message"`
}

type AuthkeyProvider struct {
	config  shared.AuthkeyConfig
	client  *http.Client
	baseURL string
}

func NewAuthkeyProvider(config shared.AuthkeyConfig) *AuthkeyProvider {
	return &AuthkeyProvider{
		config:  config,
		client:  newHTTPClient(),
		baseURL: defaultAuthkeyURL,
	}
}

func (provider *AuthkeyProvider) Name() string {
	return "authkey"
}

// Send posts a form-encoded request. Delivery counts as confirmed only
// when the API answers 200 AND reports Status "success" in the body.
func (provider *AuthkeyProvider) Send(to, message string) error {
	form := url.Values{}
	form.Set("authkey", provider.config.ApiKey)
	form.Set("sid", provider.config.SID)
	form.Set("mobile", strings.TrimPrefix(to, "+"))
	form.Set("msg", message)
	form.Set("wa", "1")

	resp, err := provider.client.PostForm(provider.baseURL, form)
	if err != nil {
		return fmt.Errorf("authkey: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("authkey: unexpected status code %v", resp.StatusCode)
	}

	body := authkeyResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("authkey: unable to parse response body: %v", err)
	}

	if !strings.EqualFold(body.Status, "success") {
		return fmt.Errorf("authkey: delivery not accepted: %v", body.Message)
	}

	return nil
}
