package models

// PaymentIntent référence l'intention créée chez le prestataire de paiement
type PaymentIntent struct {
	GatewayID        string `json:"gatewayId"`
	ClientSecret     string `json:"-"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
	Currency         string `json:"currency"`
}

// IntentRequest est ce que l'orchestrateur demande au prestataire de paiement
type IntentRequest struct {
	OrderID          string
	IdempotencyKey   string
	AmountMinorUnits int64
	Currency         string
	CustomerEmail    string
	Description      string
	Shipping         *ShippingAddress
}
