package models

// ShippingAddress reprend la forme Stripe {name, address{line1, ...}}
type ShippingAddress struct {
	Name    string        `json:"name,omitempty" bson:"name,omitempty"`
	Phone   string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Address PostalAddress `json:"address" bson:"address"`
}

type PostalAddress struct {
	Line1      string `json:"line1" bson:"line1"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	Country    string `json:"country,omitempty" bson:"country,omitempty"`
}

// IsZero vrai quand aucun champ d'adresse n'est renseigné
func (a *ShippingAddress) IsZero() bool {
	return a == nil || (a.Name == "" && a.Address == PostalAddress{})
}
