package pubsub

import (
	"testing"

	"github.com/storefrontbase/storefront/internal/indexsync"
	"github.com/storefrontbase/storefront/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTask_EmptyDocumentStaysAWrite(t *testing.T) {
	data, err := NewTask(indexsync.Change{Collection: "categories", DocumentID: "c1", After: model.Document{}}).Marshal()
	require.NoError(t, err)

	task, err := UnmarshalTask(data)
	require.NoError(t, err)
	ch := task.Change()
	assert.False(t, ch.IsDelete())
	assert.Equal(t, model.Document{}, ch.After)
	assert.Nil(t, ch.Before)
}

func TestTask_Delete(t *testing.T) {
	data, err := NewTask(indexsync.Change{
		Collection: "products",
		DocumentID: "p1",
		Before:     model.Document{"name": "Shoe"},
	}).Marshal()
	require.NoError(t, err)

	task, err := UnmarshalTask(data)
	require.NoError(t, err)
	assert.True(t, task.Deleted)

	ch := task.Change()
	assert.True(t, ch.IsDelete())
	assert.Equal(t, "Shoe", ch.Before["name"])
}

func TestTask_PreservesValues(t *testing.T) {
	data, err := NewTask(indexsync.Change{
		Collection: "products",
		DocumentID: "p1",
		After: model.Document{
			"name":       "Shoe",
			"lowerPrice": 10.5,
			"stock":      int64(3),
		},
	}).Marshal()
	require.NoError(t, err)

	task, err := UnmarshalTask(data)
	require.NoError(t, err)
	after := task.Change().After
	assert.Equal(t, "Shoe", after["name"])
	assert.Equal(t, 10.5, after["lowerPrice"])
	assert.Equal(t, int64(3), after["stock"])
}

func TestUnmarshalTask_Invalid(t *testing.T) {
	_, err := UnmarshalTask([]byte("not-bson"))
	assert.Error(t, err)

	data, err := (&Task{Collection: "products"}).Marshal()
	require.NoError(t, err)
	_, err = UnmarshalTask(data)
	assert.ErrorContains(t, err, "missing collection or document id")
}

func TestTask_NestedOrderSurvivesQueue(t *testing.T) {
	data, err := NewTask(indexsync.Change{
		Collection: "products",
		DocumentID: "p1",
		After: model.Document{
			"variationTypes": primitive.D{
				{Key: "size", Value: primitive.A{"M"}},
				{Key: "color", Value: primitive.A{"red", "blue"}},
			},
		},
	}).Marshal()
	require.NoError(t, err)

	task, err := UnmarshalTask(data)
	require.NoError(t, err)

	out := indexsync.Normalize(task.Change().After, indexsync.DefaultRules()[0])
	assert.Equal(t, []interface{}{"M", "red", "blue"}, out["variationTypes"])
}
