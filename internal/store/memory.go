package store

import (
	"context"
	"sync"

	"eadshop_back_end/internal/models"
)

// MemoryStore garde les commandes en mémoire (dev et tests)
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	byKey  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*models.Order),
		byKey:  make(map[string]string),
	}
}

func (m *MemoryStore) Save(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, ok := m.byKey[order.IdempotencyKey]; ok && owner != order.OrderID {
		return ErrDuplicateKey
	}

	m.orders[order.OrderID] = order.Clone()
	m.byKey[order.IdempotencyKey] = order.OrderID
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, orderID string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return order.Clone(), nil
}

func (m *MemoryStore) FindByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orderID, ok := m.byKey[key]
	if !ok {
		return nil, ErrNotFound
	}
	return m.orders[orderID].Clone(), nil
}

func (m *MemoryStore) List(_ context.Context, filter ListFilter) ([]*models.Order, error) {
	m.mu.RLock()
	out := make([]*models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if filter.matches(o) {
			out = append(out, o.Clone())
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(out)
	if len(out) > filter.limit() {
		out = out[:filter.limit()]
	}
	return out, nil
}
