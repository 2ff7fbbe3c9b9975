package address_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/parcelry/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mainStreet = address.Input{
	Name:       "Jane Doe",
	Street1:    "123 Main St",
	City:       "LA",
	State:      "CA",
	PostalCode: "90001",
	Country:    "US",
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func fastClient() address.ClientConfig {
	return address.ClientConfig{Timeout: 200 * time.Millisecond}
}

// =============================================================================
// Google
// =============================================================================

func TestGoogleProvider_MissingAPIKeyIsRetryable(t *testing.T) {
	p := address.NewGoogleProvider(address.GoogleConfig{})

	out := p.Verify(context.Background(), mainStreet)

	require.False(t, out.OK())
	assert.True(t, out.Err.Retryable)
	assert.Equal(t, "Google API key missing", out.Err.Message)
	assert.Equal(t, "google", p.Name())
}

func TestGoogleProvider_ValidUnchangedAddress(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1:validateAddress", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["enableUspsCass"])

		_, _ = w.Write([]byte(`{
			"result": {
				"verdict": {"addressComplete": true},
				"address": {"postalAddress": {
					"addressLines": ["123 MAIN ST "],
					"locality": "la",
					"administrativeArea": "CA",
					"postalCode": "90001",
					"regionCode": "US"
				}}
			}
		}`))
	})

	p := address.NewGoogleProvider(address.GoogleConfig{APIKey: "test-key", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.True(t, out.OK())
	assert.True(t, out.Result.IsValid)
	assert.False(t, out.Result.IsCorrected)
	require.NotNil(t, out.Result.SuggestedAddress)
	assert.Equal(t, "123 MAIN ST ", out.Result.SuggestedAddress.Street1)
	assert.Empty(t, out.Result.Messages)
	assert.Contains(t, string(out.Result.Raw), `"response"`)
}

func TestGoogleProvider_CorrectedPostalCode(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"verdict":{"addressComplete":true},"address":{"postalAddress":{
			"addressLines":["123 Main St"],"locality":"LA","administrativeArea":"CA","postalCode":"90001-1234"}}}}`))
	})

	p := address.NewGoogleProvider(address.GoogleConfig{APIKey: "k", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.True(t, out.OK())
	assert.True(t, out.Result.IsCorrected)
	assert.Equal(t, "90001-1234", out.Result.SuggestedAddress.PostalCode)
	assert.Equal(t, "US", out.Result.SuggestedAddress.Country)
}

func TestGoogleProvider_IncompleteAddressIsInvalidResult(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"verdict":{}}}`))
	})

	p := address.NewGoogleProvider(address.GoogleConfig{APIKey: "k", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.True(t, out.OK())
	assert.False(t, out.Result.IsValid)
	assert.False(t, out.Result.IsCorrected)
	assert.Nil(t, out.Result.SuggestedAddress)
	assert.Equal(t, []string{"Address validation failed"}, out.Result.Messages)
}

func TestGoogleProvider_EmptyBodyIsInvalidResult(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

	p := address.NewGoogleProvider(address.GoogleConfig{APIKey: "k", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.True(t, out.OK())
	assert.False(t, out.Result.IsValid)
}

func TestGoogleProvider_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
		message   string
	}{
		{http.StatusTooManyRequests, true, "Google service unavailable (429)"},
		{http.StatusInternalServerError, true, "Google service unavailable (500)"},
		{http.StatusBadGateway, true, "Google service unavailable (502)"},
		{http.StatusUnauthorized, true, "Google request rejected (401)"},
		{http.StatusForbidden, true, "Google request rejected (403)"},
		{http.StatusBadRequest, false, "Google request rejected (400)"},
		{http.StatusNotFound, false, "Google request rejected (404)"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			p := address.NewGoogleProvider(address.GoogleConfig{APIKey: "k", BaseURL: srv.URL, Client: fastClient()})
			out := p.Verify(context.Background(), mainStreet)

			require.False(t, out.OK())
			assert.Equal(t, tt.retryable, out.Err.Retryable)
			assert.Equal(t, tt.message, out.Err.Message)
			assert.Equal(t, "google", out.Err.Provider)
		})
	}
}

func TestGoogleProvider_TimeoutIsRetryable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	p := address.NewGoogleProvider(address.GoogleConfig{
		APIKey:  "k",
		BaseURL: srv.URL,
		Client:  address.ClientConfig{Timeout: 50 * time.Millisecond},
	})
	out := p.Verify(context.Background(), mainStreet)

	require.False(t, out.OK())
	assert.True(t, out.Err.Retryable)
	assert.Equal(t, "Google timeout", out.Err.Message)
}

func TestGoogleProvider_ConnectionRefusedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := address.NewGoogleProvider(address.GoogleConfig{APIKey: "k", BaseURL: url, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.False(t, out.OK())
	assert.True(t, out.Err.Retryable)
	assert.Equal(t, "Google request error", out.Err.Message)
}

// =============================================================================
// Smarty
// =============================================================================

func TestSmartyProvider_MissingCredentialsIsRetryable(t *testing.T) {
	p := address.NewSmartyProvider(address.SmartyConfig{AuthID: "id"})

	out := p.Verify(context.Background(), mainStreet)

	require.False(t, out.OK())
	assert.True(t, out.Err.Retryable)
	assert.Equal(t, "Smarty credentials missing", out.Err.Message)
}

func TestSmartyProvider_CandidateWithPlus4(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/street-address", r.URL.Path)
		assert.Equal(t, "id", q.Get("auth-id"))
		assert.Equal(t, "token", q.Get("auth-token"))
		assert.Equal(t, "123 Main St", q.Get("street"))
		assert.Equal(t, "90001", q.Get("zipcode"))
		assert.Equal(t, "1", q.Get("candidates"))

		_, _ = w.Write([]byte(`[{
			"delivery_line_1": "123 Main St",
			"components": {
				"zipcode": "90001",
				"plus4_code": "1234",
				"city_name": "Los Angeles",
				"state_abbreviation": "CA"
			}
		}]`))
	})

	p := address.NewSmartyProvider(address.SmartyConfig{AuthID: "id", AuthToken: "token", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.True(t, out.OK())
	assert.True(t, out.Result.IsValid)
	assert.True(t, out.Result.IsCorrected)
	assert.Equal(t, "90001-1234", out.Result.SuggestedAddress.PostalCode)
	assert.Equal(t, "Los Angeles", out.Result.SuggestedAddress.City)
}

func TestSmartyProvider_NoCandidatesIsInvalidResult(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	p := address.NewSmartyProvider(address.SmartyConfig{AuthID: "id", AuthToken: "token", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.True(t, out.OK())
	assert.False(t, out.Result.IsValid)
	assert.Nil(t, out.Result.SuggestedAddress)
	assert.Equal(t, []string{"No match found"}, out.Result.Messages)
	assert.JSONEq(t, `{"response":[]}`, string(out.Result.Raw))
}

func TestSmartyProvider_AuthFailureIsRetryable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	p := address.NewSmartyProvider(address.SmartyConfig{AuthID: "id", AuthToken: "token", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.False(t, out.OK())
	assert.True(t, out.Err.Retryable)
	assert.Equal(t, "Smarty request rejected (401)", out.Err.Message)
}

func TestSmartyProvider_BadRequestIsFatal(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	p := address.NewSmartyProvider(address.SmartyConfig{AuthID: "id", AuthToken: "token", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.False(t, out.OK())
	assert.False(t, out.Err.Retryable)
}

// =============================================================================
// USPS
// =============================================================================

func TestUSPSProvider_MissingUserIDIsRetryable(t *testing.T) {
	p := address.NewUSPSProvider(address.USPSConfig{})

	out := p.Verify(context.Background(), mainStreet)

	require.False(t, out.OK())
	assert.True(t, out.Err.Retryable)
	assert.Equal(t, "USPS user ID missing", out.Err.Message)
}

func TestUSPSProvider_ValidAddress(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Verify", q.Get("API"))
		assert.Contains(t, q.Get("XML"), `<AddressValidateRequest USERID="user">`)
		assert.Contains(t, q.Get("XML"), "<Address2>123 Main St</Address2>")

		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<AddressValidateResponse><Address ID="0">
<Address2>123 MAIN ST</Address2><City>LA</City><State>CA</State><Zip5>90001</Zip5><Zip4></Zip4>
</Address></AddressValidateResponse>`))
	})

	p := address.NewUSPSProvider(address.USPSConfig{UserID: "user", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.True(t, out.OK())
	assert.True(t, out.Result.IsValid)
	assert.False(t, out.Result.IsCorrected)
	assert.Equal(t, "123 MAIN ST", out.Result.SuggestedAddress.Street1)
	assert.Equal(t, "90001", out.Result.SuggestedAddress.PostalCode)
}

func TestUSPSProvider_ErrorBodyIsInvalidResult(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<AddressValidateResponse><Address ID="0"><Error>
<Number>-2147219401</Number><Description>Address Not Found.</Description>
</Error></Address></AddressValidateResponse>`))
	})

	p := address.NewUSPSProvider(address.USPSConfig{UserID: "user", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.True(t, out.OK())
	assert.False(t, out.Result.IsValid)
	assert.Equal(t, []string{"Address Not Found."}, out.Result.Messages)
}

func TestUSPSProvider_UnparsableBodyIsInvalidResult(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`this is not xml`))
	})

	p := address.NewUSPSProvider(address.USPSConfig{UserID: "user", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.True(t, out.OK(), "malformed provider output is a verification result, not a provider error")
	assert.False(t, out.Result.IsValid)
	assert.Equal(t, []string{"USPS response parse error"}, out.Result.Messages)
	assert.JSONEq(t, `{"xml":"this is not xml"}`, string(out.Result.Raw))
}

func TestUSPSProvider_AuthFailureIsFatal(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	p := address.NewUSPSProvider(address.USPSConfig{UserID: "user", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.False(t, out.OK())
	assert.False(t, out.Err.Retryable)
	assert.Equal(t, "USPS request rejected (403)", out.Err.Message)
}

func TestUSPSProvider_ServerErrorIsRetryable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	p := address.NewUSPSProvider(address.USPSConfig{UserID: "user", BaseURL: srv.URL, Client: fastClient()})
	out := p.Verify(context.Background(), mainStreet)

	require.False(t, out.OK())
	assert.True(t, out.Err.Retryable)
}
