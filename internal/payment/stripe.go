package payment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"eadshop_back_end/internal/config"
	"eadshop_back_end/internal/models"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// GatewayError : refus ou indisponibilité du prestataire de paiement
type GatewayError struct {
	Reason string
	Code   string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("paiement refusé (%s): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("paiement refusé: %s", e.Reason)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// StripeGateway crée les PaymentIntent Stripe
type StripeGateway struct {
	configured bool
	create     func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func NewStripeGateway(secretKey string) *StripeGateway {
	g := &StripeGateway{create: paymentintent.New}
	if secretKey != "" {
		stripe.Key = secretKey
		g.configured = true
		log.Println("✅ Stripe initialisé")
	} else {
		log.Println("⚠️ Stripe non configuré : les paiements seront refusés")
	}
	return g
}

func (g *StripeGateway) Ready() error {
	if !g.configured {
		return &config.ConfigurationError{Key: "STRIPE_SECRET_KEY"}
	}
	return nil
}

func (g *StripeGateway) MinimumAmount(currency string) int64 {
	return MinimumAmount(currency)
}

// CreateIntent : la clé d'idempotence Stripe est l'identifiant de commande,
// un rejeu réseau ne crée donc jamais deux intentions pour la même commande.
func (g *StripeGateway) CreateIntent(_ context.Context, req models.IntentRequest) (*models.PaymentIntent, error) {
	if err := g.Ready(); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinorUnits),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id": req.OrderID,
		},
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if s := req.Shipping; s != nil && s.Name != "" {
		params.Shipping = &stripe.ShippingDetailsParams{
			Name: stripe.String(s.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(s.Address.Line1),
				Line2:      stripe.String(s.Address.Line2),
				City:       stripe.String(s.Address.City),
				PostalCode: stripe.String(s.Address.PostalCode),
				State:      stripe.String(s.Address.State),
				Country:    stripe.String(s.Address.Country),
			},
		}
		if s.Phone != "" {
			params.Shipping.Phone = stripe.String(s.Phone)
		}
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	intent, err := g.create(params)
	if err != nil {
		log.Printf("❌ Erreur Stripe pour la commande %s: %v", req.OrderID, err)
		return nil, toGatewayError(err)
	}

	log.Printf("💳 PaymentIntent créé : %s (%d %s) pour la commande %s", intent.ID, req.AmountMinorUnits, req.Currency, req.OrderID)

	return &models.PaymentIntent{
		GatewayID:        intent.ID,
		ClientSecret:     intent.ClientSecret,
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         req.Currency,
	}, nil
}

func toGatewayError(err error) *GatewayError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		reason := stripeErr.Msg
		if reason == "" {
			reason = "erreur Stripe"
		}
		return &GatewayError{Reason: reason, Code: string(stripeErr.Code), Err: err}
	}
	return &GatewayError{Reason: err.Error(), Err: err}
}
