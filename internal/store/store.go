package store

import (
	"context"
	"errors"
	"sort"

	"eadshop_back_end/internal/models"
)

var (
	ErrNotFound = errors.New("commande introuvable")
	// ErrDuplicateKey : une autre commande possède déjà cette clé d'idempotence
	ErrDuplicateKey = errors.New("clé d'idempotence déjà utilisée par une autre commande")
)

// Store est l'historique des commandes. Aucune suppression n'est exposée.
type Store interface {
	Save(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Order, error)
}

// ListFilter : les résultats sont toujours triés du plus récent au plus ancien
type ListFilter struct {
	Status models.OrderStatus
	Limit  int
}

const DefaultListLimit = 200

func (f ListFilter) limit() int {
	if f.Limit <= 0 || f.Limit > DefaultListLimit {
		return DefaultListLimit
	}
	return f.Limit
}

func (f ListFilter) matches(o *models.Order) bool {
	return f.Status == "" || o.Status == f.Status
}

func sortNewestFirst(orders []*models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
