package store

import (
	"context"
	"errors"
	"fmt"

	"eadshop_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

// MongoStore persiste les commandes dans la collection "orders"
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection(ordersCollection)}
}

// EnsureIndexes crée les index uniques qui servent de garde-fou contre les doublons
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "idempotency_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("création des index commandes: %w", err)
	}
	return nil
}

func (m *MongoStore) Save(ctx context.Context, order *models.Order) error {
	filter := bson.M{"order_id": order.OrderID}
	opts := options.Replace().SetUpsert(true)

	_, err := m.collection.ReplaceOne(ctx, filter, order, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("sauvegarde commande %s: %w", order.OrderID, err)
	}
	return nil
}

func (m *MongoStore) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	return m.findOne(ctx, bson.M{"order_id": orderID})
}

func (m *MongoStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	return m.findOne(ctx, bson.M{"idempotency_key": key})
}

func (m *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	err := m.collection.FindOne(ctx, filter).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lecture commande: %w", err)
	}
	return &order, nil
}

func (m *MongoStore) List(ctx context.Context, filter ListFilter) ([]*models.Order, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(filter.limit()))

	cursor, err := m.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("liste des commandes: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("décodage des commandes: %w", err)
	}
	return orders, nil
}
