package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type documentStore struct {
	client         *mongo.Client
	db             *mongo.Database
	dataCollection string
	sysCollection  string
}

// NewDocumentStore initializes a new MongoDB document store
func NewDocumentStore(client *mongo.Client, db *mongo.Database, dataColl string, sysColl string) storage.DocumentStore {
	return &documentStore{
		client:         client,
		db:             db,
		dataCollection: dataColl,
		sysCollection:  sysColl,
	}
}

func (m *documentStore) getCollection(nameOrPath string) *mongo.Collection {
	if nameOrPath == "sys" || strings.HasPrefix(nameOrPath, "sys/") {
		return m.db.Collection(m.sysCollection)
	}
	return m.db.Collection(m.dataCollection)
}

func (m *documentStore) Get(ctx context.Context, path string) (*storage.StoredDoc, error) {
	if err := storage.ValidatePath(path); err != nil {
		return nil, err
	}

	var doc storage.StoredDoc
	err := m.getCollection(path).FindOne(ctx, bson.M{"_id": path}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, model.WrapError(err)
	}

	return &doc, nil
}

func (m *documentStore) Create(ctx context.Context, path string, data map[string]interface{}) error {
	if err := storage.ValidatePath(path); err != nil {
		return err
	}

	doc := storage.NewStoredDoc(path, data)
	_, err := m.getCollection(path).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrExists
	}
	return err
}

func (m *documentStore) Set(ctx context.Context, path string, data map[string]interface{}) error {
	if err := storage.ValidatePath(path); err != nil {
		return err
	}
	collection, _, _ := storage.SplitPath(path)
	now := time.Now().UnixMilli()

	update := bson.M{
		"$set": bson.M{
			"collection": collection,
			"data":       data,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
		"$inc": bson.M{
			"version": 1,
		},
	}

	_, err := m.getCollection(path).UpdateOne(ctx, bson.M{"_id": path}, update, options.Update().SetUpsert(true))
	return err
}

func (m *documentStore) Delete(ctx context.Context, path string) error {
	if err := storage.ValidatePath(path); err != nil {
		return err
	}

	result, err := m.getCollection(path).DeleteOne(ctx, bson.M{"_id": path})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (m *documentStore) Query(ctx context.Context, q model.Query) ([]*storage.StoredDoc, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	filter := makeFilterBSON(q.Filters)
	filter["collection"] = q.Collection

	findOptions := options.Find()
	if q.Limit > 0 {
		findOptions.SetLimit(int64(q.Limit))
	}
	if len(q.OrderBy) > 0 {
		findOptions.SetSort(makeSortBSON(q.OrderBy))
	}
	if proj := makeProjection(q.Select); proj != nil {
		findOptions.SetProjection(proj)
	}

	cursor, err := m.getCollection(q.Collection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, model.WrapError(err)
	}
	defer cursor.Close(ctx)

	docs := []*storage.StoredDoc{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, model.WrapError(err)
	}

	return docs, nil
}

// EnsureIndexes creates necessary indexes
func (m *documentStore) EnsureIndexes(ctx context.Context) error {
	coll := m.getCollection("")

	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "collection", Value: 1}, {Key: "data.name", Value: 1}}},
		{Keys: bson.D{{Key: "collection", Value: 1}, {Key: "data.category", Value: 1}}},
	})
	return err
}

func (m *documentStore) Close(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}
