package models

// CartLine est une ligne soumise par le client, jamais digne de confiance
type CartLine struct {
	ItemID          string            `json:"id"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"options,omitempty"`
}

type ReconciledLine struct {
	Item                CatalogItem       `json:"item"`
	Quantity            int               `json:"quantity"`
	SelectedOptions     map[string]string `json:"options,omitempty"`
	LineTotalMinorUnits int64             `json:"lineTotalMinorUnits"`
}

// ReconciledCart : total recalculé côté serveur à partir des prix du catalogue
type ReconciledCart struct {
	Lines           []ReconciledLine `json:"lines"`
	TotalMinorUnits int64            `json:"totalMinorUnits"`
	Currency        string           `json:"currency"`
}
