package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

type userDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	IsAdmin   bool      `bson:"isAdmin"`
	TokenHash string    `bson:"tokenHash"`
	CreatedAt time.Time `bson:"createdAt"`
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository returns a repository over the "users" collection.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(usersCollection)}
}

// EnsureMongoIndexes creates the unique email index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_idx"),
	})
	if err != nil {
		return fmt.Errorf("repository: failed to create users email index: %w", err)
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate user ID: %w", err)
		}
		u.ID = id
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = time.Now().UTC()

	doc := userDocument{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		TokenHash: u.TokenHash,
		CreatedAt: u.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert user: %w", err)
	}

	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *mongoRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to find user: %w", err)
	}

	id, err := uuid.FromString(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("repository: stored user id %q is not a uuid: %w", doc.ID, err)
	}

	return &User{
		ID:        id,
		Name:      doc.Name,
		Email:     doc.Email,
		IsAdmin:   doc.IsAdmin,
		TokenHash: doc.TokenHash,
		CreatedAt: doc.CreatedAt,
	}, nil
}
