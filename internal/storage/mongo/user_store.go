package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefrontbase/storefront/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database, collectionName string) storage.UserStore {
	if collectionName == "" {
		collectionName = "auth_users"
	}
	return &userStore{
		coll: db.Collection(collectionName),
	}
}

func (s *userStore) CreateUser(ctx context.Context, user *storage.User) error {
	user.Email = normalizeEmail(user.Email)

	count, err := s.coll.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrUserExists
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err = s.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrUserExists
	}
	return err
}

func (s *userStore) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return s.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (s *userStore) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *userStore) findOne(ctx context.Context, filter bson.M) (*storage.User, error) {
	var user storage.User
	err := s.coll.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *userStore) SetCustomClaims(ctx context.Context, id string, claims map[string]interface{}) error {
	update := bson.M{
		"$set": bson.M{
			"claims":     claims,
			"updated_at": time.Now().UTC(),
		},
	}
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

func (s *userStore) DeleteUser(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

func (s *userStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *userStore) Close(ctx context.Context) error {
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
