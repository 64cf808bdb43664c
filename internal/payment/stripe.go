// Package payment creates payment intents with Stripe.
package payment

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeIntents creates card PaymentIntents through the Stripe API.
type StripeIntents struct {
	api *client.API
}

// NewStripeIntents returns a client authenticated with secretKey.
func NewStripeIntents(secretKey string) *StripeIntents {
	return newStripeIntents(secretKey, nil)
}

func newStripeIntents(secretKey string, backends *stripe.Backends) *StripeIntents {
	return &StripeIntents{api: client.New(secretKey, backends)}
}

// CreateIntent creates a PaymentIntent for amount in the smallest currency
// unit and returns its client secret.
func (s *StripeIntents) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", errors.Wrap(err, "stripe: create payment intent")
	}
	return pi.ClientSecret, nil
}
