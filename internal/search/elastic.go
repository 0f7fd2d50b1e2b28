package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"eadshop_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultIndex = "orders"

var ErrDisabled = errors.New("recherche Elasticsearch non configurée")

// OrderIndex indexe les commandes pour la recherche admin
type OrderIndex struct {
	client *elasticsearch.Client
	index  string
}

// orderDocument ne contient jamais le client secret
type orderDocument struct {
	OrderID         string    `json:"orderId"`
	CustomerEmail   string    `json:"customerEmail"`
	Status          string    `json:"status"`
	TotalMinorUnits int64     `json:"totalMinorUnits"`
	Currency        string    `json:"currency"`
	Items           []string  `json:"items"`
	City            string    `json:"city,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Hit struct {
	OrderID         string    `json:"orderId"`
	CustomerEmail   string    `json:"customerEmail"`
	Status          string    `json:"status"`
	TotalMinorUnits int64     `json:"totalMinorUnits"`
	Currency        string    `json:"currency"`
	CreatedAt       time.Time `json:"createdAt"`
}

func NewOrderIndex(client *elasticsearch.Client, index string) *OrderIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &OrderIndex{client: client, index: index}
}

//
// --- INDEXATION ---
//

func (i *OrderIndex) IndexOrder(ctx context.Context, order *models.Order) error {
	if i == nil || i.client == nil {
		return ErrDisabled
	}

	doc := orderDocument{
		OrderID:         order.OrderID,
		CustomerEmail:   order.CustomerEmail,
		Status:          string(order.Status),
		TotalMinorUnits: order.TotalMinorUnits,
		Currency:        order.Currency,
		CreatedAt:       order.CreatedAt,
	}
	for _, l := range order.Lines {
		doc.Items = append(doc.Items, l.Name)
	}
	if order.ShippingAddress != nil {
		doc.City = order.ShippingAddress.Address.City
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encodage document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: order.OrderID,
		Body:       bytes.NewReader(data),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic a refusé la commande %s: %s", order.OrderID, res.Status())
	}
	return nil
}

//
// --- RECHERCHE ---
//

// Search cherche par e-mail, identifiant, produit ou ville
func (i *OrderIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if i == nil || i.client == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"orderId", "customerEmail", "items", "city"},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"createdAt": map[string]string{"order": "desc"}},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  &buf,
		Size:  &limit,
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("❌ Elasticsearch erreur: %s", res.String())
		return nil, fmt.Errorf("recherche refusée (%d)", res.StatusCode)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source Hit `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	hits := make([]Hit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		hits = append(hits, h.Source)
	}
	return hits, nil
}
