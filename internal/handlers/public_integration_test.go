package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/handlers/testutil"
)

func TestHealthAndBanner(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var health struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Timestamp   string `json:"timestamp"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &health)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Environment)
	require.NotEmpty(t, health.Timestamp)
	require.NotEmpty(t, resp.Header().Get("X-Request-ID"))

	resp = env.Request(http.MethodGet, "/api", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Contains(t, resp.Body.String(), "Autodetail API")

	resp = env.Request(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "go_goroutines")

	resp = env.Request(http.MethodGet, "/api/does-not-exist", nil, "")
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.False(t, testutil.DecodeResponse(t, resp).Success)
}

func TestContactForm(t *testing.T) {
	unconfigured := testutil.NewEnv(t)
	resp := unconfigured.Request(http.MethodPost, "/api/contact", map[string]string{"message": "Hello", "emailOrPhone": "me@example.com"}, "")
	require.Equal(t, http.StatusInternalServerError, resp.Code, resp.Body.String())
	require.Equal(t, "CONFIGURATION_ERROR", testutil.DecodeResponse(t, resp).Error.Code)

	env := testutil.NewEnv(t, testutil.WithContactRecipient("ops@example.com"))

	resp = env.Request(http.MethodPost, "/api/contact", map[string]string{"emailOrPhone": "me@example.com"}, "")
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodPost, "/api/contact", map[string]string{"message": "Do you ship to Ganja?", "emailOrPhone": "+994501112233"}, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	msg, ok := env.Outbox.LastTo("ops@example.com")
	require.True(t, ok)
	require.Contains(t, msg.Body, "Do you ship to Ganja?")
	require.Contains(t, msg.Body, "+994501112233")

	env.Outbox.Fail(errors.New("smtp down"))
	resp = env.Request(http.MethodPost, "/api/contact", map[string]string{"message": "Again"}, "")
	require.Equal(t, http.StatusInternalServerError, resp.Code, resp.Body.String())
}

func TestRatesProxy(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodGet, "/api/rates", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var quote struct {
		Base    string  `json:"base"`
		Target  string  `json:"target"`
		Rate    float64 `json:"rate"`
		Updated *string `json:"updated"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &quote)
	require.Equal(t, "USD", quote.Base)
	require.Equal(t, "AZN", quote.Target)
	require.Equal(t, 1.7, quote.Rate)
	require.NotNil(t, quote.Updated)

	resp = env.Request(http.MethodGet, "/api/rates?base=usd&target=eur", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, 1, env.Rates.Calls(), "the table for a base is cached")

	resp = env.Request(http.MethodGet, "/api/rates?target=XXX", nil, "")
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/rates?base=GBP", nil, "")
	require.Equal(t, http.StatusBadGateway, resp.Code, resp.Body.String())
}
