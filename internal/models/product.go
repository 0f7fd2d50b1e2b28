package models

// CatalogItem est un produit du catalogue, immuable une fois chargé.
// Les prix sont en unités mineures (centimes).
type CatalogItem struct {
	ID                  string              `json:"id" yaml:"id"`
	Name                string              `json:"name" yaml:"name"`
	UnitPriceMinorUnits int64               `json:"unitPriceMinorUnits" yaml:"unit_price_minor_units"`
	Currency            string              `json:"currency" yaml:"currency"`
	Options             map[string][]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// AllowsOption indique si value fait partie des valeurs autorisées pour l'option name
func (i CatalogItem) AllowsOption(name, value string) (known bool, allowed bool) {
	values, ok := i.Options[name]
	if !ok {
		return false, false
	}
	for _, v := range values {
		if v == value {
			return true, true
		}
	}
	return true, false
}
