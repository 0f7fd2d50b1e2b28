package pricing

import (
	"log"
	"math"
	"sort"

	"eadshop_back_end/internal/catalog"
	"eadshop_back_end/internal/models"
)

// MaxLineQuantity borne chaque ligne pour éviter les débordements
const MaxLineQuantity = 1000

type OptionPolicy int

const (
	// EnforceOptions rejette tout le panier sur une option hors catalogue
	EnforceOptions OptionPolicy = iota
	// IgnoreOptions écarte l'option fautive et journalise
	IgnoreOptions
)

// Reconcile recalcule le total à partir des seuls prix du catalogue.
// Fonction pure : aucune E/S, résultat déterministe pour un catalogue donné.
func Reconcile(lines []models.CartLine, cat *catalog.Catalog, policy OptionPolicy) (*models.ReconciledCart, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	cart := &models.ReconciledCart{Lines: make([]models.ReconciledLine, 0, len(lines))}

	for _, line := range lines {
		item, ok := cat.Lookup(line.ItemID)
		if !ok {
			return nil, &UnknownItemError{ItemID: line.ItemID}
		}

		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return nil, &InvalidQuantityError{ItemID: line.ItemID, Quantity: line.Quantity}
		}

		if cart.Currency == "" {
			cart.Currency = item.Currency
		} else if item.Currency != cart.Currency {
			return nil, &CurrencyMismatchError{ItemID: item.ID, Expected: cart.Currency, Got: item.Currency}
		}

		options, err := checkOptions(item, line.SelectedOptions, policy)
		if err != nil {
			return nil, err
		}

		qty := int64(line.Quantity)
		if item.UnitPriceMinorUnits > math.MaxInt64/qty {
			return nil, &InvalidQuantityError{ItemID: line.ItemID, Quantity: line.Quantity}
		}
		lineTotal := item.UnitPriceMinorUnits * qty
		if cart.TotalMinorUnits > math.MaxInt64-lineTotal {
			return nil, &InvalidQuantityError{ItemID: line.ItemID, Quantity: line.Quantity}
		}

		cart.TotalMinorUnits += lineTotal
		cart.Lines = append(cart.Lines, models.ReconciledLine{
			Item:                item,
			Quantity:            line.Quantity,
			SelectedOptions:     options,
			LineTotalMinorUnits: lineTotal,
		})
	}

	return cart, nil
}

func checkOptions(item models.CatalogItem, selected map[string]string, policy OptionPolicy) (map[string]string, error) {
	if len(selected) == 0 {
		return nil, nil
	}

	// ordre stable pour que l'erreur remontée soit déterministe
	names := make([]string, 0, len(selected))
	for name := range selected {
		names = append(names, name)
	}
	sort.Strings(names)

	kept := make(map[string]string, len(selected))
	for _, name := range names {
		value := selected[name]
		if _, allowed := item.AllowsOption(name, value); allowed {
			kept[name] = value
			continue
		}
		if policy == EnforceOptions {
			return nil, &InvalidOptionError{ItemID: item.ID, Option: name, Value: value}
		}
		log.Printf("⚠️ Option ignorée pour %s: %s=%q", item.ID, name, value)
	}

	if len(kept) == 0 {
		return nil, nil
	}
	return kept, nil
}
