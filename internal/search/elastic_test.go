package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"eadshop_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func fakeResponse(status int, body string) *http.Response {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(strings.NewReader(body))}
}

func newTestIndex(t *testing.T, rt roundTripFunc) *OrderIndex {
	t.Helper()
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://elastic.test:9200"},
		Transport: rt,
	})
	require.NoError(t, err)
	return NewOrderIndex(client, "")
}

func TestIndexOrder_SendsDocumentWithoutSecret(t *testing.T) {
	var path string
	var doc map[string]interface{}
	idx := newTestIndex(t, func(r *http.Request) (*http.Response, error) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		return fakeResponse(http.StatusCreated, `{"result":"created"}`), nil
	})

	order := &models.Order{
		OrderID:         "ord-1",
		CustomerEmail:   "cliente@example.it",
		Status:          models.StatusPaid,
		ClientSecret:    "pi_secret",
		TotalMinorUnits: 5000,
		Currency:        "eur",
		Lines:           []models.OrderLine{{Name: "Canotta", Quantity: 2}},
		ShippingAddress: &models.ShippingAddress{Address: models.PostalAddress{City: "Milano"}},
		CreatedAt:       time.Now(),
	}

	require.NoError(t, idx.IndexOrder(context.Background(), order))

	assert.Equal(t, "/orders/_doc/ord-1", path)
	assert.Equal(t, "PAID", doc["status"])
	assert.Equal(t, "Milano", doc["city"])
	assert.NotContains(t, doc, "clientSecret")
}

func TestIndexOrder_ErrorStatus(t *testing.T) {
	idx := newTestIndex(t, func(r *http.Request) (*http.Response, error) {
		return fakeResponse(http.StatusBadRequest, `{"error":"mapping"}`), nil
	})

	err := idx.IndexOrder(context.Background(), &models.Order{OrderID: "ord-1"})
	assert.Error(t, err)
}

func TestSearch_ParsesHits(t *testing.T) {
	idx := newTestIndex(t, func(r *http.Request) (*http.Response, error) {
		return fakeResponse(http.StatusOK, `{"hits":{"hits":[
			{"_source":{"orderId":"ord-2","customerEmail":"b@example.it","status":"PAID","totalMinorUnits":5500,"currency":"eur"}},
			{"_source":{"orderId":"ord-1","customerEmail":"a@example.it","status":"FAILED","totalMinorUnits":1800,"currency":"eur"}}
		]}}`), nil
	})

	hits, err := idx.Search(context.Background(), "example.it", 10)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "ord-2", hits[0].OrderID)
	assert.Equal(t, int64(1800), hits[1].TotalMinorUnits)
}

func TestNilIndexIsDisabled(t *testing.T) {
	var idx *OrderIndex

	_, err := idx.Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, idx.IndexOrder(context.Background(), &models.Order{}), ErrDisabled)
}
