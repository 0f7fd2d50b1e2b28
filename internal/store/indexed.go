package store

import (
	"context"
	"log"

	"eadshop_back_end/internal/models"
)

// Indexer reçoit une copie de chaque commande sauvegardée (moteur de recherche)
type Indexer interface {
	IndexOrder(ctx context.Context, order *models.Order) error
}

// Indexed décore un Store : l'indexation est best-effort et n'échoue jamais un Save
type Indexed struct {
	Store
	indexer Indexer
}

func NewIndexed(inner Store, indexer Indexer) *Indexed {
	return &Indexed{Store: inner, indexer: indexer}
}

func (i *Indexed) Save(ctx context.Context, order *models.Order) error {
	if err := i.Store.Save(ctx, order); err != nil {
		return err
	}
	if err := i.indexer.IndexOrder(ctx, order); err != nil {
		log.Printf("⚠️ Indexation commande %s échouée: %v", order.OrderID, err)
	}
	return nil
}
