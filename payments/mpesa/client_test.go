package mpesa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"254712345678", "254712345678", false},
		{"+254712345678", "254712345678", false},
		{" 254712345678 ", "254712345678", false},
		{"0712345678", "254712345678", false},
		{"712345678", "254712345678", false},
		{"110345678", "254110345678", false},
		{"", "", true},
		{"12345", "", true},
		{"255712345678", "", true},    // не кенийский код
		{"07123456789", "", true},     // лишняя цифра
		{"abc712345678", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestSTKCallbackAmount(t *testing.T) {
	raw := `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 500},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`

	var env STKCallbackEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	cb := env.Body.StkCallback
	assert.Equal(t, "ws_CO_191220191020363925", cb.CheckoutRequestID)
	assert.Equal(t, 0, cb.ResultCode)

	amount, ok := cb.Amount()
	require.True(t, ok)
	assert.Equal(t, 500.0, amount)
}

func TestSTKCallbackAmountMissingOnFailure(t *testing.T) {
	raw := `{
		"Body": {
			"stkCallback": {
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user"
			}
		}
	}`

	var env STKCallbackEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	_, ok := env.Body.StkCallback.Amount()
	assert.False(t, ok)
}

func TestSTKPush(t *testing.T) {
	var gotPush stkPushRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "key", user)
			assert.Equal(t, "secret", pass)
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "token-1", ExpiresIn: "3599"})
		case "/mpesa/stkpush/v1/processrequest":
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPush))
			json.NewEncoder(w).Encode(STKPushResponse{
				MerchantRequestID: "m-1",
				CheckoutRequestID: "ws_CO_1",
				ResponseCode:      "0",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:         srv.URL,
		ConsumerKey:     "key",
		ConsumerSecret:  "secret",
		ShortCode:       "174379",
		Passkey:         "passkey",
		CallbackBaseURL: "https://api.example.com",
	})

	resp, err := client.STKPush(context.Background(), "254712345678", 250, "wallet:42")
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_1", resp.CheckoutRequestID)

	assert.Equal(t, "174379", gotPush.BusinessShortCode)
	assert.Equal(t, "250", gotPush.Amount)
	assert.Equal(t, "254712345678", gotPush.PhoneNumber)
	assert.Equal(t, "https://api.example.com/wallet/callbacks/deposit", gotPush.CallBackURL)
	assert.Equal(t, "wallet:42", gotPush.AccountReference)
}

func TestSTKPushRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "token-1"})
			return
		}
		json.NewEncoder(w).Encode(STKPushResponse{ResponseCode: "1", CustomerMessage: "Insufficient funds"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})

	_, err := client.STKPush(context.Background(), "254712345678", 100, "ref")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient funds")
}

func TestAccessTokenCached(t *testing.T) {
	var tokenCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			tokenCalls++
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "token-1"})
			return
		}
		json.NewEncoder(w).Encode(STKPushResponse{ResponseCode: "0", CheckoutRequestID: "ws_CO_1"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.STKPush(ctx, "254712345678", 10, "ref")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, tokenCalls)
}
