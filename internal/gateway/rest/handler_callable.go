package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/storefrontbase/storefront/internal/catalog"
	"github.com/storefrontbase/storefront/internal/identity"
	"github.com/storefrontbase/storefront/pkg/model"
)

const (
	msgAdminCreated        = "User created successfully!"
	msgAdminUnauthorized   = "Unauthorized to create admin users"
	msgCategoryRequired    = "Category ID is required."
	msgFetchProductsFailed = "Failed to fetch products"
	msgFetchCategoryFailed = "Failed to fetch categories"
	msgSearchRequired      = "Search query is required."
	msgSearchFailed        = "Failed to search products."
)

// MessageResult and ErrorResult are the result payloads callables use to
// report outcomes without the error envelope.
type MessageResult struct {
	Message string `json:"message"`
}

type ErrorResult struct {
	Error string `json:"error"`
}

type SearchResult struct {
	Products []catalog.Item `json:"products"`
}

type fetchProductsData struct {
	CategoryID string `json:"categoryId"`
}

type searchData struct {
	Query string `json:"query"`
}

func (h *Handler) callCreateAdmin(ctx context.Context, data json.RawMessage) (interface{}, error) {
	var req identity.AdminRequest
	if err := decodeData(data, &req); err != nil {
		return nil, err
	}

	err := h.accounts.CreateAdmin(ctx, identity.ClaimsFromContext(ctx), req)
	switch {
	case err == nil:
		return MessageResult{Message: msgAdminCreated}, nil
	case errors.Is(err, identity.ErrNotAdmin):
		return MessageResult{Message: msgAdminUnauthorized}, nil
	case model.IsCanceled(err):
		return nil, err
	default:
		slog.Error("Error creating admin user", "email", req.Email, "error", err)
		return ErrorResult{Error: err.Error()}, nil
	}
}

func (h *Handler) callFetchProductsByCategory(ctx context.Context, data json.RawMessage) (interface{}, error) {
	var req fetchProductsData
	if err := decodeData(data, &req); err != nil {
		return nil, err
	}

	list, err := h.catalog.ProductsByCategory(ctx, req.CategoryID)
	switch {
	case err == nil:
		return list, nil
	case errors.Is(err, catalog.ErrCategoryRequired):
		return nil, invalidArgument(msgCategoryRequired)
	case model.IsCanceled(err):
		return nil, err
	default:
		return nil, internalError(msgFetchProductsFailed)
	}
}

func (h *Handler) callFetchCategories(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	list, err := h.catalog.Categories(ctx)
	if err != nil {
		if model.IsCanceled(err) {
			return nil, err
		}
		return nil, internalError(msgFetchCategoryFailed)
	}
	return list, nil
}

func (h *Handler) callSearchProducts(ctx context.Context, data json.RawMessage) (interface{}, error) {
	var req searchData
	if err := decodeData(data, &req); err != nil {
		return nil, err
	}

	products, err := h.catalog.Search(ctx, req.Query, 0)
	switch {
	case err == nil:
		return SearchResult{Products: products}, nil
	case errors.Is(err, catalog.ErrQueryRequired):
		return MessageResult{Message: msgSearchRequired}, nil
	case model.IsCanceled(err):
		return nil, err
	default:
		return ErrorResult{Error: msgSearchFailed}, nil
	}
}
