package service

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
)

// Currency charged for every payment intent.
const Currency = "usd"

// ErrInvalidAmount is returned for a non-positive or non-finite price.
var ErrInvalidAmount = errors.New("price must be a positive number")

// IntentCreator creates a payment intent and returns its client secret.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

type PaymentService struct {
	intents IntentCreator
}

func NewPaymentService(intents IntentCreator) *PaymentService {
	return &PaymentService{intents: intents}
}

// CreateIntent charges price dollars and returns the provider's client secret.
func (s *PaymentService) CreateIntent(ctx context.Context, price float64) (string, error) {
	amount, err := ToCents(price)
	if err != nil {
		return "", err
	}
	secret, err := s.intents.CreateIntent(ctx, amount, Currency)
	if err != nil {
		return "", errors.Wrapf(err, "create payment intent for %d cents", amount)
	}
	return secret, nil
}

// ToCents converts a dollar price to cents, rounding to the nearest cent so
// 19.99 becomes 1999 rather than 1998.
func ToCents(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, ErrInvalidAmount
	}
	cents := math.Round(price * 100)
	if cents < 1 {
		return 0, ErrInvalidAmount
	}
	return int64(cents), nil
}
