package indexsync

import (
	"context"

	"github.com/storefrontbase/storefront/internal/search"
	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/pkg/model"
	"github.com/stretchr/testify/mock"
)

type MockReader struct {
	mock.Mock
}

func (m *MockReader) Get(ctx context.Context, path string) (*storage.StoredDoc, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.StoredDoc), args.Error(1)
}

func (m *MockReader) Query(ctx context.Context, q model.Query) ([]*storage.StoredDoc, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.StoredDoc), args.Error(1)
}

type MockSearchClient struct {
	mock.Mock
}

func (m *MockSearchClient) SaveObject(ctx context.Context, index string, record search.Record) (int64, error) {
	args := m.Called(ctx, index, record)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSearchClient) DeleteObject(ctx context.Context, index string, objectID string) (int64, error) {
	args := m.Called(ctx, index, objectID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSearchClient) WaitForTask(ctx context.Context, index string, taskID int64) error {
	args := m.Called(ctx, index, taskID)
	return args.Error(0)
}

func category(name interface{}) *storage.StoredDoc {
	return &storage.StoredDoc{
		Id:         "categories/x",
		Collection: "categories",
		Data:       map[string]interface{}{"name": name},
	}
}
