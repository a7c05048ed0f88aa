package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Skotchmaster/snapcart/services/order/internal/models"
)

const ordersCollection = "orders"

type itemDocument struct {
	ProductID string `bson:"productId"`
	Quantity  int    `bson:"quantity"`
}

type addressDocument struct {
	Address    string `bson:"address"`
	City       string `bson:"city"`
	PostalCode string `bson:"postalCode"`
	Country    string `bson:"country"`
}

type orderDocument struct {
	ID              string          `bson:"_id"`
	UserID          string          `bson:"userId"`
	Products        []itemDocument  `bson:"products"`
	ShippingAddress addressDocument `bson:"shippingAddress"`
	TotalPrice      float64         `bson:"totalPrice"`
	Status          string          `bson:"status"`
	OrderDate       time.Time       `bson:"orderDate"`
	CreatedAt       time.Time       `bson:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt"`
}

func toDocument(o *models.Order) orderDocument {
	items := make([]itemDocument, 0, len(o.Products))
	for _, it := range o.Products {
		items = append(items, itemDocument{ProductID: it.ProductID.String(), Quantity: it.Quantity})
	}
	return orderDocument{
		ID:       o.ID.String(),
		UserID:   o.UserID.String(),
		Products: items,
		ShippingAddress: addressDocument{
			Address:    o.ShippingAddress.Address,
			City:       o.ShippingAddress.City,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
		},
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
		OrderDate:  o.OrderDate,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func (d orderDocument) toModel() (models.Order, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Order{}, fmt.Errorf("decode order id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return models.Order{}, fmt.Errorf("decode user id %q: %w", d.UserID, err)
	}

	items := make([]models.OrderItem, 0, len(d.Products))
	for i, it := range d.Products {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return models.Order{}, fmt.Errorf("decode product id %q: %w", it.ProductID, err)
		}
		items = append(items, models.OrderItem{OrderID: id, Position: i, ProductID: pid, Quantity: it.Quantity})
	}

	return models.Order{
		ID:       id,
		UserID:   userID,
		Products: items,
		ShippingAddress: models.ShippingAddress{
			Address:    d.ShippingAddress.Address,
			City:       d.ShippingAddress.City,
			PostalCode: d.ShippingAddress.PostalCode,
			Country:    d.ShippingAddress.Country,
		},
		TotalPrice: d.TotalPrice,
		Status:     models.Status(d.Status),
		OrderDate:  d.OrderDate.UTC(),
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}, nil
}

// MongoRepo keeps each order as one document with its line items embedded.
type MongoRepo struct {
	collection *mongo.Collection
}

var _ Repository = (*MongoRepo)(nil)

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{collection: db.Collection(ordersCollection)}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "orderDate", Value: -1}}},
		{Keys: bson.D{{Key: "orderDate", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}
	return nil
}

func (r *MongoRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Products {
		order.Products[i].OrderID = order.ID
		order.Products[i].Position = i
	}
	_, err := r.collection.InsertOne(ctx, toDocument(order))
	return err
}

func (r *MongoRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var doc orderDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	order, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MongoRepo) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *MongoRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return r.find(ctx, bson.M{"userId": userID.String()})
}

func (r *MongoRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now().UTC()}}

	var doc orderDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	order, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MongoRepo) Revenue(ctx context.Context) (float64, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
			{Key: "orders", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Revenue float64 `bson:"revenue"`
		Orders  int64   `bson:"orders"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Revenue, rows[0].Orders, nil
}

func (r *MongoRepo) StatusCounts(ctx context.Context) (map[models.Status]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make(map[models.Status]int64, len(rows))
	for _, row := range rows {
		out[models.Status(row.Status)] = row.Count
	}
	return out, nil
}
