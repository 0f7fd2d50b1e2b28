package checkout

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRequest regroupe les refus de validation (400)
	ErrInvalidRequest = errors.New("requête de paiement invalide")
	ErrMissingEmail   = fmt.Errorf("%w: e-mail client manquant", ErrInvalidRequest)
	ErrInvalidEmail   = fmt.Errorf("%w: e-mail client invalide", ErrInvalidRequest)

	ErrCheckoutInProgress   = errors.New("un paiement est déjà en cours pour cette clé")
	ErrIdempotencyKeyReused = errors.New("clé d'idempotence réutilisée pour un autre panier")
	ErrOrderNotPaid         = errors.New("la commande n'est pas payée")
)

type AmountTooSmallError struct {
	Amount   int64
	Minimum  int64
	Currency string
}

func (e *AmountTooSmallError) Error() string {
	return fmt.Sprintf("montant trop faible: %d %s (minimum %d)", e.Amount, e.Currency, e.Minimum)
}

func (e *AmountTooSmallError) Unwrap() error { return ErrInvalidRequest }

// PaymentFailedError : la commande est passée en FAILED
type PaymentFailedError struct {
	OrderID  string
	Reason   string
	Replayed bool
	Err      error
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("paiement échoué pour la commande %s: %s", e.OrderID, e.Reason)
}

func (e *PaymentFailedError) Unwrap() error { return e.Err }

// PersistenceDegradedError : l'argent a bougé mais la commande PAID n'a pas été enregistrée.
// Result reste valide et doit être renvoyé au client.
type PersistenceDegradedError struct {
	Result *Result
	Err    error
}

func (e *PersistenceDegradedError) Error() string {
	return fmt.Sprintf("paiement %s accepté mais commande %s non enregistrée: %v", e.Result.PaymentIntentID, e.Result.OrderID, e.Err)
}

func (e *PersistenceDegradedError) Unwrap() error { return e.Err }

// NotificationError n'est jamais renvoyée au client
type NotificationError struct {
	OrderID string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification non envoyée pour la commande %s: %v", e.OrderID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

type StageTimeoutError struct {
	Stage   string
	Timeout time.Duration
}

func (e *StageTimeoutError) Error() string {
	return fmt.Sprintf("étape %s: délai de %s dépassé", e.Stage, e.Timeout)
}
