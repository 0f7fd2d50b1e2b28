package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eadshop_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Schéma attendu (scripts CQL appliqués manuellement, comme pour les autres keyspaces) :
//
//	CREATE TABLE orders (
//	    order_id text PRIMARY KEY, idempotency_key text, lines text, total_minor_units bigint,
//	    currency text, customer_email text, shipping_address text, status text,
//	    payment_intent_id text, client_secret text, failure_reason text,
//	    created_at timestamp, updated_at timestamp);
//	CREATE TABLE orders_by_idempotency_key (idempotency_key text PRIMARY KEY, order_id text);
type ScyllaStore struct {
	session *gocql.Session
}

func NewScyllaStore(session *gocql.Session) *ScyllaStore {
	return &ScyllaStore{session: session}
}

const selectOrderColumns = `SELECT order_id, idempotency_key, lines, total_minor_units, currency,
	customer_email, shipping_address, status, payment_intent_id, client_secret, failure_reason,
	created_at, updated_at FROM orders`

func (s *ScyllaStore) Save(ctx context.Context, order *models.Order) error {
	// LWT : la clé d'idempotence ne peut appartenir qu'à une seule commande
	existing := map[string]interface{}{}
	applied, err := s.session.Query(
		`INSERT INTO orders_by_idempotency_key (idempotency_key, order_id) VALUES (?, ?) IF NOT EXISTS`,
		order.IdempotencyKey, order.OrderID,
	).WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return fmt.Errorf("réservation clé d'idempotence: %w", err)
	}
	if !applied {
		if owner, _ := existing["order_id"].(string); owner != order.OrderID {
			return ErrDuplicateKey
		}
	}

	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("sérialisation des lignes: %w", err)
	}
	var shipping string
	if order.ShippingAddress != nil {
		data, err := json.Marshal(order.ShippingAddress)
		if err != nil {
			return fmt.Errorf("sérialisation adresse: %w", err)
		}
		shipping = string(data)
	}

	err = s.session.Query(`INSERT INTO orders (order_id, idempotency_key, lines, total_minor_units, currency,
		customer_email, shipping_address, status, payment_intent_id, client_secret, failure_reason,
		created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderID, order.IdempotencyKey, string(lines), order.TotalMinorUnits, order.Currency,
		order.CustomerEmail, shipping, string(order.Status), order.PaymentIntentID, order.ClientSecret,
		order.FailureReason, order.CreatedAt, order.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("sauvegarde commande %s: %w", order.OrderID, err)
	}
	return nil
}

func (s *ScyllaStore) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	row := newScyllaRow()
	err := s.session.Query(selectOrderColumns+` WHERE order_id = ?`, orderID).
		WithContext(ctx).Scan(row.dest()...)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lecture commande %s: %w", orderID, err)
	}
	return row.order()
}

func (s *ScyllaStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var orderID string
	err := s.session.Query(`SELECT order_id FROM orders_by_idempotency_key WHERE idempotency_key = ?`, key).
		WithContext(ctx).Scan(&orderID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lecture clé d'idempotence: %w", err)
	}
	return s.FindByID(ctx, orderID)
}

// List parcourt la table puis trie côté Go : Scylla ne sait pas trier globalement
func (s *ScyllaStore) List(ctx context.Context, filter ListFilter) ([]*models.Order, error) {
	iter := s.session.Query(selectOrderColumns).WithContext(ctx).Iter()

	orders := make([]*models.Order, 0)
	row := newScyllaRow()
	for iter.Scan(row.dest()...) {
		order, err := row.order()
		if err != nil {
			iter.Close()
			return nil, err
		}
		if filter.matches(order) {
			orders = append(orders, order)
		}
		row = newScyllaRow()
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("liste des commandes: %w", err)
	}

	sortNewestFirst(orders)
	if len(orders) > filter.limit() {
		orders = orders[:filter.limit()]
	}
	return orders, nil
}

type scyllaRow struct {
	o        models.Order
	lines    string
	shipping string
	status   string
	created  time.Time
	updated  time.Time
}

func newScyllaRow() *scyllaRow {
	return &scyllaRow{}
}

func (r *scyllaRow) dest() []interface{} {
	return []interface{}{
		&r.o.OrderID, &r.o.IdempotencyKey, &r.lines, &r.o.TotalMinorUnits, &r.o.Currency,
		&r.o.CustomerEmail, &r.shipping, &r.status, &r.o.PaymentIntentID, &r.o.ClientSecret,
		&r.o.FailureReason, &r.created, &r.updated,
	}
}

func (r *scyllaRow) order() (*models.Order, error) {
	order := r.o
	order.Status = models.OrderStatus(r.status)
	order.CreatedAt = r.created
	order.UpdatedAt = r.updated
	if r.lines != "" {
		if err := json.Unmarshal([]byte(r.lines), &order.Lines); err != nil {
			return nil, fmt.Errorf("lignes illisibles pour %s: %w", order.OrderID, err)
		}
	}
	if r.shipping != "" {
		var addr models.ShippingAddress
		if err := json.Unmarshal([]byte(r.shipping), &addr); err != nil {
			return nil, fmt.Errorf("adresse illisible pour %s: %w", order.OrderID, err)
		}
		order.ShippingAddress = &addr
	}
	return &order, nil
}
