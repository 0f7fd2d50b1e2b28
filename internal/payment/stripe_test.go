package payment

import (
	"context"
	"errors"
	"testing"

	"eadshop_back_end/internal/config"
	"eadshop_back_end/internal/models"

	"github.com/stripe/stripe-go/v83"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(create func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)) *StripeGateway {
	return &StripeGateway{configured: true, create: create}
}

func TestCreateIntent_BuildsParams(t *testing.T) {
	var captured *stripe.PaymentIntentParams
	g := newTestGateway(func(p *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		captured = p
		return &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret_abc"}, nil
	})

	intent, err := g.CreateIntent(context.Background(), models.IntentRequest{
		OrderID:          "ord-1",
		IdempotencyKey:   "ord-1",
		AmountMinorUnits: 5000,
		Currency:         "eur",
		CustomerEmail:    "cliente@example.it",
		Shipping: &models.ShippingAddress{
			Name:    "Mario Rossi",
			Address: models.PostalAddress{Line1: "Via Roma 1", City: "Milano", PostalCode: "20100", Country: "IT"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.GatewayID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, int64(5000), intent.AmountMinorUnits)

	require.NotNil(t, captured)
	assert.Equal(t, int64(5000), *captured.Amount)
	assert.Equal(t, "eur", *captured.Currency)
	assert.Equal(t, "ord-1", captured.Metadata["order_id"])
	assert.Equal(t, "cliente@example.it", *captured.ReceiptEmail)
	assert.Equal(t, "ord-1", *captured.IdempotencyKey)
	require.NotNil(t, captured.Shipping)
	assert.Equal(t, "Milano", *captured.Shipping.Address.City)
}

func TestCreateIntent_StripeErrorReason(t *testing.T) {
	g := newTestGateway(func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		return nil, &stripe.Error{Msg: "Your card was declined.", Code: stripe.ErrorCodeCardDeclined}
	})

	_, err := g.CreateIntent(context.Background(), models.IntentRequest{OrderID: "ord-1", AmountMinorUnits: 5000, Currency: "eur"})

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "Your card was declined.", gwErr.Reason)
	assert.Equal(t, string(stripe.ErrorCodeCardDeclined), gwErr.Code)
}

func TestCreateIntent_NetworkError(t *testing.T) {
	g := newTestGateway(func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		return nil, errors.New("dial tcp: i/o timeout")
	})

	_, err := g.CreateIntent(context.Background(), models.IntentRequest{OrderID: "ord-1", AmountMinorUnits: 5000, Currency: "eur"})

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Contains(t, gwErr.Reason, "i/o timeout")
}

func TestCreateIntent_NotConfigured(t *testing.T) {
	called := false
	g := &StripeGateway{create: func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		called = true
		return nil, nil
	}}

	_, err := g.CreateIntent(context.Background(), models.IntentRequest{})

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "STRIPE_SECRET_KEY", cfgErr.Key)
	assert.False(t, called)
}

func TestMinimumAmount(t *testing.T) {
	assert.Equal(t, int64(50), MinimumAmount("eur"))
	assert.Equal(t, int64(50), MinimumAmount("EUR"))
	assert.Equal(t, int64(30), MinimumAmount("gbp"))
	assert.Equal(t, int64(50), MinimumAmount("xyz"))
}
