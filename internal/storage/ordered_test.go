package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStoredDoc_UnmarshalKeepsNestedOrder(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: "products/p1"},
		{Key: "collection", Value: "products"},
		{Key: "version", Value: int64(2)},
		{Key: "data", Value: bson.D{
			{Key: "name", Value: "Shoe"},
			{Key: "variationTypes", Value: bson.D{
				{Key: "size", Value: bson.A{"M"}},
				{Key: "color", Value: bson.A{"red", "blue"}},
			}},
		}},
	})
	require.NoError(t, err)

	var doc StoredDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.Equal(t, "products/p1", doc.Id)
	assert.Equal(t, "products", doc.Collection)
	assert.Equal(t, int64(2), doc.Version)
	assert.Equal(t, "Shoe", doc.Data["name"])

	nested, ok := doc.Data["variationTypes"].(primitive.D)
	require.True(t, ok, "nested document should decode ordered, got %T", doc.Data["variationTypes"])
	require.Len(t, nested, 2)
	assert.Equal(t, "size", nested[0].Key)
	assert.Equal(t, "color", nested[1].Key)
}

func TestStoredDoc_UnmarshalWithoutData(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "_id", Value: "categories/c1"}})
	require.NoError(t, err)

	var doc StoredDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "c1", doc.DocumentID())
	assert.Nil(t, doc.Data)
}

func TestStoredDoc_PointerFieldNull(t *testing.T) {
	type wrapper struct {
		Doc *StoredDoc `bson:"doc"`
	}
	raw, err := bson.Marshal(bson.D{{Key: "doc", Value: nil}})
	require.NoError(t, err)

	var w wrapper
	require.NoError(t, bson.Unmarshal(raw, &w))
	assert.Nil(t, w.Doc)
}

func TestFieldsOf(t *testing.T) {
	assert.Nil(t, FieldsOf(nil))
	assert.Equal(t, map[string]interface{}{}, FieldsOf(bson.D{}))
	assert.Equal(t, map[string]interface{}{"a": int32(1)}, FieldsOf(bson.D{{Key: "a", Value: int32(1)}}))
}
