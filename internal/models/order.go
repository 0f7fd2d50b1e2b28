package models

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	StatusPaid           OrderStatus = "PAID"
	StatusFailed         OrderStatus = "FAILED"
)

var ErrIllegalTransition = errors.New("transition de statut interdite")

// IsTerminal : PAID et FAILED ne bougent plus
func (s OrderStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed
}

func (s OrderStatus) Valid() bool {
	return s == StatusPendingPayment || s.IsTerminal()
}

// CanTransitionTo n'autorise que PENDING_PAYMENT → PAID | FAILED
func CanTransitionTo(from, to OrderStatus) bool {
	return from == StatusPendingPayment && to.IsTerminal()
}

type OrderLine struct {
	ItemID              string            `json:"itemId" bson:"item_id"`
	Name                string            `json:"name" bson:"name"`
	UnitPriceMinorUnits int64             `json:"unitPriceMinorUnits" bson:"unit_price_minor_units"`
	Quantity            int               `json:"quantity" bson:"quantity"`
	SelectedOptions     map[string]string `json:"options,omitempty" bson:"options,omitempty"`
	LineTotalMinorUnits int64             `json:"lineTotalMinorUnits" bson:"line_total_minor_units"`
}

type Order struct {
	OrderID         string           `json:"orderId" bson:"order_id"`
	IdempotencyKey  string           `json:"idempotencyKey" bson:"idempotency_key"`
	Lines           []OrderLine      `json:"lines" bson:"lines"`
	TotalMinorUnits int64            `json:"totalMinorUnits" bson:"total_minor_units"`
	Currency        string           `json:"currency" bson:"currency"`
	CustomerEmail   string           `json:"customerEmail" bson:"customer_email"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty" bson:"shipping_address,omitempty"`
	Status          OrderStatus      `json:"status" bson:"status"`
	PaymentIntentID string           `json:"paymentIntentId,omitempty" bson:"payment_intent_id,omitempty"`
	ClientSecret    string           `json:"-" bson:"client_secret,omitempty"`
	FailureReason   string           `json:"failureReason,omitempty" bson:"failure_reason,omitempty"`
	CreatedAt       time.Time        `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time        `json:"updatedAt" bson:"updated_at"`
}

// NewPendingOrder fige une copie du panier réconcilié
func NewPendingOrder(orderID, idempotencyKey string, cart ReconciledCart, email string, shipping *ShippingAddress, now time.Time) *Order {
	lines := make([]OrderLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		var opts map[string]string
		if len(l.SelectedOptions) > 0 {
			opts = make(map[string]string, len(l.SelectedOptions))
			for k, v := range l.SelectedOptions {
				opts[k] = v
			}
		}
		lines = append(lines, OrderLine{
			ItemID:              l.Item.ID,
			Name:                l.Item.Name,
			UnitPriceMinorUnits: l.Item.UnitPriceMinorUnits,
			Quantity:            l.Quantity,
			SelectedOptions:     opts,
			LineTotalMinorUnits: l.LineTotalMinorUnits,
		})
	}

	if shipping.IsZero() {
		shipping = nil
	}

	return &Order{
		OrderID:         orderID,
		IdempotencyKey:  idempotencyKey,
		Lines:           lines,
		TotalMinorUnits: cart.TotalMinorUnits,
		Currency:        cart.Currency,
		CustomerEmail:   email,
		ShippingAddress: shipping,
		Status:          StatusPendingPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (o *Order) transition(to OrderStatus, now time.Time) error {
	if !CanTransitionTo(o.Status, to) {
		return fmt.Errorf("%w: %s → %s (commande %s)", ErrIllegalTransition, o.Status, to, o.OrderID)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// MarkPaid rattache l'intention de paiement et passe la commande en PAID
func (o *Order) MarkPaid(intent *PaymentIntent, now time.Time) error {
	if err := o.transition(StatusPaid, now); err != nil {
		return err
	}
	o.PaymentIntentID = intent.GatewayID
	o.ClientSecret = intent.ClientSecret
	return nil
}

func (o *Order) MarkFailed(reason string, now time.Time) error {
	if err := o.transition(StatusFailed, now); err != nil {
		return err
	}
	o.FailureReason = reason
	return nil
}

// Clone copie profonde, pour que les stores ne partagent jamais d'état mutable
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = make([]OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		c.Lines[i] = l
		if l.SelectedOptions != nil {
			c.Lines[i].SelectedOptions = make(map[string]string, len(l.SelectedOptions))
			for k, v := range l.SelectedOptions {
				c.Lines[i].SelectedOptions[k] = v
			}
		}
	}
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		c.ShippingAddress = &addr
	}
	return &c
}
