package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

type orderDocument struct {
	ID              string          `bson:"_id"`
	UserID          string          `bson:"user"`
	OrderItems      []OrderItem     `bson:"orderItems"`
	ShippingAddress ShippingAddress `bson:"shippingAddress"`
	PaymentMethod   string          `bson:"paymentMethod"`
	ItemsPrice      float64         `bson:"itemsPrice"`
	ShippingPrice   float64         `bson:"shippingPrice"`
	TaxPrice        float64         `bson:"taxPrice"`
	TotalPrice      float64         `bson:"totalPrice"`
	IsPaid          bool            `bson:"isPaid"`
	PaidAt          *time.Time      `bson:"paidAt"`
	PaymentResult   *PaymentResult  `bson:"paymentResult,omitempty"`
	IsDelivered     bool            `bson:"isDelivered"`
	DeliveredAt     *time.Time      `bson:"deliveredAt"`
	IdempotencyKey  string          `bson:"idempotencyKey,omitempty"`
	CreatedAt       time.Time       `bson:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt"`
}

func toDocument(o *Order) orderDocument {
	return orderDocument{
		ID:              o.ID.String(),
		UserID:          o.User.ID.String(),
		OrderItems:      o.OrderItems,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		ItemsPrice:      o.ItemsPrice,
		ShippingPrice:   o.ShippingPrice,
		TaxPrice:        o.TaxPrice,
		TotalPrice:      o.TotalPrice,
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		PaymentResult:   o.PaymentResult,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		IdempotencyKey:  o.IdempotencyKey,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (d orderDocument) toOrder() (*Order, error) {
	id, err := uuid.FromString(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid order id %q: %w", d.ID, err)
	}
	userID, err := uuid.FromString(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q on order %s: %w", d.UserID, d.ID, err)
	}
	return &Order{
		ID:              id,
		User:            Owner{ID: userID},
		OrderItems:      d.OrderItems,
		ShippingAddress: d.ShippingAddress,
		PaymentMethod:   PaymentMethod(d.PaymentMethod),
		ItemsPrice:      d.ItemsPrice,
		ShippingPrice:   d.ShippingPrice,
		TaxPrice:        d.TaxPrice,
		TotalPrice:      d.TotalPrice,
		IsPaid:          d.IsPaid,
		PaidAt:          d.PaidAt,
		PaymentResult:   d.PaymentResult,
		IsDelivered:     d.IsDelivered,
		DeliveredAt:     d.DeliveredAt,
		IdempotencyKey:  d.IdempotencyKey,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

type mongoRepository struct {
	orders *mongo.Collection
}

// NewMongoRepository stores orders as documents in the "orders" collection.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{orders: db.Collection(ordersCollection)}
}

// EnsureMongoIndexes creates the indexes the repository relies on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ordersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "idempotencyKey", Value: 1}},
			Options: options.Index().
				SetName(idempotencyIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: failed to create order indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) CreateOrder(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		o.ID = genID
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	o.UpdatedAt = o.CreatedAt

	if _, err := r.orders.InsertOne(ctx, toDocument(o)); err != nil {
		if mongo.IsDuplicateKeyError(err) && o.IdempotencyKey != "" {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	return nil
}

func (r *mongoRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *mongoRepository) GetOrderByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*Order, error) {
	return r.findOne(ctx, bson.M{"user": userID.String(), "idempotencyKey": key})
}

func (r *mongoRepository) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := r.find(ctx, bson.M{"user": userID.String()})
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user id %s: %w", userID, err)
	}
	return orders, nil
}

func (r *mongoRepository) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := r.find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	return orders, nil
}

func (r *mongoRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, result PaymentResult) error {
	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": id.String(), "isPaid": false},
		bson.M{"$set": bson.M{
			"isPaid":        true,
			"paidAt":        paidAt,
			"paymentResult": result,
			"updatedAt":     paidAt,
		}},
	)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("repository: failed to mark order paid")
		return fmt.Errorf("repository: failed to mark order %s paid: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return r.explainNoop(ctx, id, ErrAlreadyPaid)
	}
	return nil
}

func (r *mongoRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error {
	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": id.String(), "isDelivered": false},
		bson.M{"$set": bson.M{
			"isDelivered": true,
			"deliveredAt": deliveredAt,
			"updatedAt":   deliveredAt,
		}},
	)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("repository: failed to mark order delivered")
		return fmt.Errorf("repository: failed to mark order %s delivered: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return r.explainNoop(ctx, id, ErrAlreadyDelivered)
	}
	return nil
}

func (r *mongoRepository) explainNoop(ctx context.Context, id uuid.UUID, guardErr error) error {
	n, err := r.orders.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("repository: failed to check order %s: %w", id, err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return guardErr
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (*Order, error) {
	var doc orderDocument
	if err := r.orders.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to find order: %w", err)
	}
	o, err := doc.toOrder()
	if err != nil {
		return nil, fmt.Errorf("repository: %w", err)
	}
	return o, nil
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M) ([]Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orders := make([]Order, 0)
	for cur.Next(ctx) {
		var doc orderDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		o, err := doc.toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, cur.Err()
}
