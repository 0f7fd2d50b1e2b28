package checkout

import (
	"context"

	"eadshop_back_end/internal/models"
)

// PaymentGateway : le prestataire qui autorise et encaisse
type PaymentGateway interface {
	Ready() error
	MinimumAmount(currency string) int64
	CreateIntent(ctx context.Context, req models.IntentRequest) (*models.PaymentIntent, error)
}

// Notifier envoie la confirmation au client, au mieux
type Notifier interface {
	Send(ctx context.Context, customerEmail string, order *models.Order) error
}

// Locker sérialise les tentatives concurrentes sur une même clé.
// Lock renvoie context.DeadlineExceeded si le verrou n'a pas pu être pris à temps.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Observer reçoit l'issue de chaque checkout (métriques)
type Observer interface {
	CheckoutOutcome(outcome string)
	NotificationFailed()
}

const (
	OutcomePaid                = "paid"
	OutcomeReplayed            = "replayed"
	OutcomePaymentFailed       = "payment_failed"
	OutcomePersistenceDegraded = "persistence_degraded"
	OutcomeRejected            = "rejected"
	OutcomeInProgress          = "in_progress"
)

type nopObserver struct{}

func (nopObserver) CheckoutOutcome(string) {}
func (nopObserver) NotificationFailed()    {}
