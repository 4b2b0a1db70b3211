package messaging

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sindi/umshado/shared"
	"github.com/stretchr/testify/assert"
)

func TestNewProvider(t *testing.T) {
	cases := []struct {
		description  string
		activeName   string
		expectedName string
	}{
		{"Should build the authkey provider", "authkey", "authkey"},
		{"Should build the wasender provider", "wasender", "wasender"},
		{"Should build the twilio provider", "twilio", "twilio"},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			provider, err := NewProvider(shared.ProvidersConfig{Active: c.activeName})
			assert.Nil(t, err)
			assert.Equal(t, c.expectedName, provider.Name())
		})
	}

	t.Run("Should fail closed on an unknown provider name", func(t *testing.T) {
		provider, err := NewProvider(shared.ProvidersConfig{Active: "callmebot"})
		assert.Nil(t, provider)
		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "unknown messaging provider")
	})
}

func TestAuthkeySend(t *testing.T) {
	var receivedForm map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		receivedForm = map[string]string{
			"authkey": r.PostFormValue("authkey"),
			"mobile":  r.PostFormValue("mobile"),
			"msg":     r.PostFormValue("msg"),
		}
		json.NewEncoder(rw).Encode(map[string]string{"Status": "success"})
	}))
	defer server.Close()

	provider := NewAuthkeyProvider(shared.AuthkeyConfig{ApiKey: "test-key"})
	provider.baseURL = server.URL

	err := provider.Send("+27821234567", "hello")
	assert.Nil(t, err)
	assert.Equal(t, "test-key", receivedForm["authkey"])
	assert.Equal(t, "27821234567", receivedForm["mobile"], "mobile field should be sent without the '+' prefix")
	assert.Equal(t, "hello", receivedForm["msg"])
}

func TestAuthkeySendRequiresSuccessMarker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		// 200 with an error body must NOT count as delivered
		json.NewEncoder(rw).Encode(map[string]string{"Status": "error", "Message": "invalid authkey"})
	}))
	defer server.Close()

	provider := NewAuthkeyProvider(shared.AuthkeyConfig{})
	provider.baseURL = server.URL

	err := provider.Send("+27821234567", "hello")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "invalid authkey")
}

func TestWasenderSend(t *testing.T) {
	cases := []struct {
		description    string
		statusCode     int
		body           string
		expectedErrSub string
	}{
		{"Should treat a JSON 200 as success", http.StatusOK, `{"success":true}`, ""},
		{"Should treat a non-JSON 200 body as success", http.StatusOK, "OK", ""},
		{"Should map 401 to an auth failure", http.StatusUnauthorized, "{}", "api token rejected"},
		{"Should map 422 to a validation failure", http.StatusUnprocessableEntity, "{}", "validation failed"},
		{"Should map 429 to a rate-limit failure", http.StatusTooManyRequests, "{}", "rate limited"},
		{"Should fail on any other status code", http.StatusBadGateway, "{}", "unexpected status code"},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				rw.WriteHeader(c.statusCode)
				rw.Write([]byte(c.body))
			}))
			defer server.Close()

			provider := NewWasenderProvider(shared.WasenderConfig{ApiToken: "test-token"})
			provider.baseURL = server.URL

			err := provider.Send("+27821234567", "hello")
			if c.expectedErrSub == "" {
				assert.Nil(t, err)
				return
			}

			assert.NotNil(t, err)
			assert.Contains(t, err.Error(), c.expectedErrSub)
		})
	}
}

func TestTwilioSendInTestMode(t *testing.T) {
	provider := NewTwilioProvider(shared.TwilioConfig{}, true)
	assert.Nil(t, provider.Send("+27821234567", "hello"))
}
