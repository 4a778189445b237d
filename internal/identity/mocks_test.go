package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *storage.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.User), args.Error(1)
}

func (m *MockUserStore) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.User), args.Error(1)
}

func (m *MockUserStore) SetCustomClaims(ctx context.Context, id string, claims map[string]interface{}) error {
	args := m.Called(ctx, id, claims)
	return args.Error(0)
}

func (m *MockUserStore) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUserStore) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Create(ctx context.Context, path string, data map[string]interface{}) error {
	args := m.Called(ctx, path, data)
	return args.Error(0)
}

func (m *MockProfileStore) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
	})
	return NewTokenServiceWithKey(testKey, Config{AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour})
}

func newTestService(t *testing.T) (*AuthService, *MockUserStore, *MockProfileStore) {
	t.Helper()
	users := new(MockUserStore)
	profiles := new(MockProfileStore)
	return NewAuthService(DefaultConfig(), users, profiles, newTestTokens(t)), users, profiles
}

func adminCaller() *Claims {
	return &Claims{Custom: map[string]interface{}{"admin": true}}
}
