package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/storefrontbase/storefront/internal/catalog"
	"github.com/storefrontbase/storefront/internal/identity"
	"github.com/storefrontbase/storefront/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestCallable_UnknownFunction(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/callable/nope", `{"data":{}}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, map[string]interface{}{"status": StatusNotFound, "message": "Function not found"}, body["error"])
}

func TestCallable_InvalidBody(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/callable/searchProducts", `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, StatusInvalidArgument, body["error"].(map[string]interface{})["status"])
}

func TestCallable_InvalidData(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/callable/fetchProductsByCategory", `{"data":"just a string"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallable_CreateAdmin(t *testing.T) {
	req := identity.AdminRequest{Name: "Ann", Email: "ann@example.com", MobileNo: "555", Password: "secret1"}
	body := `{"data":{"name":"Ann","email":"ann@example.com","mobileNo":"555","password":"secret1"}}`
	admin := &identity.Claims{Custom: map[string]interface{}{"admin": true}}

	tests := []struct {
		name   string
		err    error
		result map[string]interface{}
	}{
		{"success", nil, map[string]interface{}{"message": "User created successfully!"}},
		{"caller not admin", identity.ErrNotAdmin, map[string]interface{}{"message": "Unauthorized to create admin users"}},
		{"saga failure", errors.New("email already in use"), map[string]interface{}{"error": "email already in use"}},
		{
			"rollback failure",
			&identity.RollbackError{Cause: errors.New("boom"), Compensation: errors.New("delete failed")},
			map[string]interface{}{"error": "Error rolling back user creation. delete failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authenticate := func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(identity.WithClaims(r.Context(), admin)))
				})
			}
			env := newTestEnv(t, WithAuthenticator(authenticate))
			env.accounts.On("CreateAdmin", mock.Anything, admin, req).Return(tt.err).Once()

			w := env.do("POST", "/callable/createadmin", body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.result, decodeBody(t, w.Body.Bytes())["result"])
		})
	}
}

func TestCallable_CreateAdmin_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	env.accounts.On("CreateAdmin", mock.Anything, (*identity.Claims)(nil), mock.Anything).Return(identity.ErrNotAdmin).Once()

	w := env.do("POST", "/callable/createadmin", `{"data":{"email":"a@b.c"}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"message": "Unauthorized to create admin users"}, decodeBody(t, w.Body.Bytes())["result"])
}

func TestCallable_CreateAdmin_Canceled(t *testing.T) {
	env := newTestEnv(t)
	env.accounts.On("CreateAdmin", mock.Anything, mock.Anything, mock.Anything).Return(context.Canceled).Once()

	w := env.do("POST", "/callable/createadmin", `{"data":{}}`)
	assert.Equal(t, StatusClientClosedRequest, w.Code)
}

func TestCallable_FetchProductsByCategory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		list := &catalog.ProductList{Products: []catalog.Item{{"id": "p1", "name": "Shoe", "lowerPrice": 10.0}}}
		env.catalog.On("ProductsByCategory", mock.Anything, "c1").Return(list, nil).Once()

		w := env.do("POST", "/callable/fetchProductsByCategory", `{"data":{"categoryId":"c1"}}`)

		assert.Equal(t, http.StatusOK, w.Code)
		result := decodeBody(t, w.Body.Bytes())["result"].(map[string]interface{})
		assert.Equal(t, []interface{}{map[string]interface{}{"id": "p1", "name": "Shoe", "lowerPrice": 10.0}}, result["products"])
		assert.NotContains(t, result, "message")
	})

	t.Run("empty", func(t *testing.T) {
		env := newTestEnv(t)
		list := &catalog.ProductList{Products: []catalog.Item{}, Message: catalog.MessageNoProducts}
		env.catalog.On("ProductsByCategory", mock.Anything, "c2").Return(list, nil).Once()

		w := env.do("POST", "/callable/fetchProductsByCategory", `{"data":{"categoryId":"c2"}}`)

		result := decodeBody(t, w.Body.Bytes())["result"].(map[string]interface{})
		assert.Equal(t, []interface{}{}, result["products"])
		assert.Equal(t, "No products found for this category.", result["message"])
	})

	t.Run("missing category", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.On("ProductsByCategory", mock.Anything, "").Return(nil, catalog.ErrCategoryRequired).Once()

		w := env.do("POST", "/callable/fetchProductsByCategory", `{"data":{}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t,
			map[string]interface{}{"status": StatusInvalidArgument, "message": "Category ID is required."},
			decodeBody(t, w.Body.Bytes())["error"])
	})

	t.Run("store failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.On("ProductsByCategory", mock.Anything, "c1").Return(nil, errors.New("mongo down")).Once()

		w := env.do("POST", "/callable/fetchProductsByCategory", `{"data":{"categoryId":"c1"}}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t,
			map[string]interface{}{"status": StatusInternal, "message": "Failed to fetch products"},
			decodeBody(t, w.Body.Bytes())["error"])
	})

	t.Run("canceled", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.On("ProductsByCategory", mock.Anything, "c1").Return(nil, model.ErrCanceled).Once()

		w := env.do("POST", "/callable/fetchProductsByCategory", `{"data":{"categoryId":"c1"}}`)
		assert.Equal(t, StatusClientClosedRequest, w.Code)
	})
}

func TestCallable_FetchCategories(t *testing.T) {
	env := newTestEnv(t)
	list := &catalog.CategoryList{Categories: []catalog.Item{{"id": "c1", "name": "Shoes"}}}
	env.catalog.On("Categories", mock.Anything).Return(list, nil).Once()

	w := env.do("POST", "/callable/fetchCategories", `{"data":null}`)

	assert.Equal(t, http.StatusOK, w.Code)
	result := decodeBody(t, w.Body.Bytes())["result"].(map[string]interface{})
	assert.Len(t, result["categories"], 1)

	env2 := newTestEnv(t)
	env2.catalog.On("Categories", mock.Anything).Return(nil, errors.New("boom")).Once()
	w = env2.do("POST", "/callable/fetchCategories", `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCallable_SearchProducts(t *testing.T) {
	t.Run("results", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.On("Search", mock.Anything, "sho", 0).Return([]catalog.Item{{"id": "p1"}}, nil).Once()

		w := env.do("POST", "/callable/searchProducts", `{"data":{"query":"sho"}}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t,
			map[string]interface{}{"products": []interface{}{map[string]interface{}{"id": "p1"}}},
			decodeBody(t, w.Body.Bytes())["result"])
	})

	t.Run("blank query", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.On("Search", mock.Anything, "  ", 0).Return(nil, catalog.ErrQueryRequired).Once()

		w := env.do("POST", "/callable/searchProducts", `{"data":{"query":"  "}}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]interface{}{"message": "Search query is required."}, decodeBody(t, w.Body.Bytes())["result"])
	})

	t.Run("failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.On("Search", mock.Anything, "x", 0).Return(nil, errors.New("boom")).Once()

		w := env.do("POST", "/callable/searchProducts", `{"data":{"query":"x"}}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]interface{}{"error": "Failed to search products."}, decodeBody(t, w.Body.Bytes())["result"])
	})
}

func TestCallableError_HTTPStatus(t *testing.T) {
	tests := map[string]int{
		StatusInvalidArgument:  http.StatusBadRequest,
		StatusUnauthenticated:  http.StatusUnauthorized,
		StatusPermissionDenied: http.StatusForbidden,
		StatusNotFound:         http.StatusNotFound,
		StatusInternal:         http.StatusInternalServerError,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}
	for status, want := range tests {
		assert.Equal(t, want, (&CallableError{Status: status}).HTTPStatus(), status)
	}
}
