package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidCart regroupe tous les rejets de panier (HTTP 400)
var ErrInvalidCart = errors.New("panier invalide")

var ErrEmptyCart = fmt.Errorf("%w: panier vide", ErrInvalidCart)

type UnknownItemError struct {
	ItemID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("produit inconnu: %s", e.ItemID)
}

func (e *UnknownItemError) Unwrap() error { return ErrInvalidCart }

type InvalidOptionError struct {
	ItemID string
	Option string
	Value  string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("option %s=%q non autorisée pour %s", e.Option, e.Value, e.ItemID)
}

func (e *InvalidOptionError) Unwrap() error { return ErrInvalidCart }

type InvalidQuantityError struct {
	ItemID   string
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantité invalide pour %s: %d", e.ItemID, e.Quantity)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidCart }

// CurrencyMismatchError : un panier ne peut être payé que dans une seule devise
type CurrencyMismatchError struct {
	ItemID   string
	Expected string
	Got      string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("devise %s de %s incompatible avec %s", e.Got, e.ItemID, e.Expected)
}

func (e *CurrencyMismatchError) Unwrap() error { return ErrInvalidCart }

// Code retourne l'identifiant stable exposé aux clients HTTP
func Code(err error) string {
	var (
		unknown  *UnknownItemError
		option   *InvalidOptionError
		quantity *InvalidQuantityError
		currency *CurrencyMismatchError
	)
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &unknown):
		return "unknown_item"
	case errors.As(err, &option):
		return "invalid_option"
	case errors.As(err, &quantity):
		return "invalid_quantity"
	case errors.As(err, &currency):
		return "currency_mismatch"
	default:
		return "invalid_cart"
	}
}
