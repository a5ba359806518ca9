// AngelaMos | 2026
// stripe.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/carterperez-dev/storefront/internal/config"
)

var ErrInvalidAmount = errors.New("payment amount must be positive")

// StripeProvider creates card payment intents for placed orders.
type StripeProvider struct {
	intents  paymentintent.Client
	currency string
}

func NewStripeProvider(cfg config.PaymentConfig) *StripeProvider {
	return NewStripeProviderWithBackend(cfg, stripe.GetBackend(stripe.APIBackend))
}

// NewStripeProviderWithBackend points the provider at a specific API backend.
func NewStripeProviderWithBackend(
	cfg config.PaymentConfig,
	backend stripe.Backend,
) *StripeProvider {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeProvider{
		intents:  paymentintent.Client{B: backend, Key: cfg.StripeSecretKey},
		currency: currency,
	}
}

// CreateIntent starts a payment for the order total. The order id doubles
// as the idempotency key so a retried checkout reuses the same intent.
func (p *StripeProvider) CreateIntent(
	ctx context.Context,
	orderID, userID string,
	amount decimal.Decimal,
) (string, error) {
	cents := AmountInCents(amount)
	if cents <= 0 {
		return "", ErrInvalidAmount
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(p.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("order-" + orderID)
	params.AddMetadata("order_id", orderID)
	params.AddMetadata("user_id", userID)

	pi, err := p.intents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}

	return pi.ClientSecret, nil
}

// AmountInCents converts a decimal currency amount to the smallest unit,
// rounding half away from zero.
func AmountInCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
