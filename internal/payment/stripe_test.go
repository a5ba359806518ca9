// AngelaMos | 2026
// stripe_test.go

package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"

	"github.com/carterperez-dev/storefront/internal/config"
)

func TestAmountInCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"25.50", 2550},
		{"0.01", 1},
		{"19.999", 2000},
		{"100", 10000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountInCents(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestCreateIntent(t *testing.T) {
	var got http.Header
	var form map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		got = r.Header.Clone()
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","client_secret":"pi_1_secret_x"}`))
	}))
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	p := NewStripeProviderWithBackend(config.PaymentConfig{
		StripeSecretKey: "sk_test_123",
		Currency:        "EUR",
	}, backend)

	secret, err := p.CreateIntent(context.Background(), "o-1", "u-1", decimal.RequireFromString("25.50"))
	require.NoError(t, err)

	assert.Equal(t, "pi_1_secret_x", secret)
	assert.Equal(t, "order-o-1", got.Get("Idempotency-Key"))
	assert.Equal(t, []string{"2550"}, form["amount"])
	assert.Equal(t, []string{"eur"}, form["currency"])
	assert.Equal(t, []string{"o-1"}, form["metadata[order_id]"])
}

func TestCreateIntentRejectsZeroAmount(t *testing.T) {
	p := NewStripeProvider(config.PaymentConfig{StripeSecretKey: "sk_test_123"})

	_, err := p.CreateIntent(context.Background(), "o-1", "u-1", decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
