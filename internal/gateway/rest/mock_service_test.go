package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storefrontbase/storefront/internal/catalog"
	"github.com/storefrontbase/storefront/internal/identity"
	"github.com/stretchr/testify/mock"
)

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) SignIn(ctx context.Context, req identity.LoginRequest) (*identity.TokenPair, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.TokenPair), args.Error(1)
}

func (m *MockAccounts) Refresh(ctx context.Context, req identity.RefreshRequest) (*identity.TokenPair, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.TokenPair), args.Error(1)
}

func (m *MockAccounts) CreateAdmin(ctx context.Context, caller *identity.Claims, req identity.AdminRequest) error {
	args := m.Called(ctx, caller, req)
	return args.Error(0)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ProductsByCategory(ctx context.Context, categoryID string) (*catalog.ProductList, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductList), args.Error(1)
}

func (m *MockCatalog) Categories(ctx context.Context) (*catalog.CategoryList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.CategoryList), args.Error(1)
}

func (m *MockCatalog) Search(ctx context.Context, query string, max int) ([]catalog.Item, error) {
	args := m.Called(ctx, query, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Item), args.Error(1)
}

type testEnv struct {
	accounts *MockAccounts
	catalog  *MockCatalog
	mux      *http.ServeMux
}

func newTestEnv(t *testing.T, opts ...HandlerOption) *testEnv {
	t.Helper()
	env := &testEnv{
		accounts: new(MockAccounts),
		catalog:  new(MockCatalog),
		mux:      http.NewServeMux(),
	}
	NewHandler(env.accounts, env.catalog, opts...).RegisterRoutes(env.mux)
	t.Cleanup(func() {
		env.accounts.AssertExpectations(t)
		env.catalog.AssertExpectations(t)
	})
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}
