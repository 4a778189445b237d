// Package catalog answers the storefront's product and category reads.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/pkg/model"
)

var (
	ErrCategoryRequired = errors.New("category id is required")
	ErrQueryRequired    = errors.New("search query is required")
)

const (
	MessageNoProducts   = "No products found for this category."
	MessageNoCategories = "No categories found."
)

var (
	productListFields  = []string{"name", "lowerPrice", "upperPrice", "mainImage", "description"}
	categoryListFields = []string{"name", "description", "image"}
)

// Querier is the part of the document store used by the catalog.
type Querier interface {
	Query(ctx context.Context, q model.Query) ([]*storage.StoredDoc, error)
}

// Item is a document flattened for clients: its key under "id" plus the
// selected data fields. Fields missing from the source are omitted.
type Item map[string]interface{}

type ProductList struct {
	Products []Item `json:"products"`
	Message  string `json:"message,omitempty"`
}

type CategoryList struct {
	Categories []Item `json:"categories"`
	Message    string `json:"message,omitempty"`
}

type Service struct {
	store  Querier
	cfg    Config
	logger *slog.Logger
}

func New(store Querier, cfg Config) *Service {
	cfg.ApplyDefaults()
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: slog.Default().With("component", "catalog"),
	}
}

// ProductsByCategory lists the products whose category field equals
// categoryID.
func (s *Service) ProductsByCategory(ctx context.Context, categoryID string) (*ProductList, error) {
	if categoryID == "" {
		return nil, ErrCategoryRequired
	}

	docs, err := s.store.Query(ctx, model.Query{
		Collection: s.cfg.ProductsCollection,
		Filters:    model.Filters{{Field: "category", Op: model.OpEq, Value: categoryID}},
		Select:     productListFields,
	})
	if err != nil {
		s.logger.Error("Error fetching products", "category", categoryID, "error", err)
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	if len(docs) == 0 {
		return &ProductList{Products: []Item{}, Message: MessageNoProducts}, nil
	}
	return &ProductList{Products: toItems(docs, productListFields)}, nil
}

func (s *Service) Categories(ctx context.Context) (*CategoryList, error) {
	docs, err := s.store.Query(ctx, model.Query{
		Collection: s.cfg.CategoriesCollection,
		OrderBy:    []model.Order{{Field: "name", Direction: "asc"}},
		Select:     categoryListFields,
	})
	if err != nil {
		s.logger.Error("Error fetching categories", "error", err)
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	if len(docs) == 0 {
		return &CategoryList{Categories: []Item{}, Message: MessageNoCategories}, nil
	}
	return &CategoryList{Categories: toItems(docs, categoryListFields)}, nil
}

// Search finds products whose name starts with query. When that yields
// fewer than the search limit, products whose description text contains
// query (ignoring case and markup) are appended. Each product appears
// once. max caps the result; zero means no cap.
func (s *Service) Search(ctx context.Context, query string, max int) ([]Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	byName, err := s.store.Query(ctx, model.Query{
		Collection: s.cfg.ProductsCollection,
		Filters:    model.PrefixFilters("name", query),
		OrderBy:    []model.Order{{Field: "name", Direction: "asc"}},
		Limit:      s.cfg.SearchLimit,
	})
	if err != nil {
		s.logger.Error("Error searching products", "query", query, "error", err)
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	results := make([]Item, 0, len(byName))
	seen := make(map[string]bool, len(byName))
	add := func(doc *storage.StoredDoc) {
		id := doc.DocumentID()
		if seen[id] {
			return
		}
		seen[id] = true
		results = append(results, toItem(doc, nil))
	}
	for _, doc := range byName {
		add(doc)
	}

	if len(byName) < s.cfg.SearchLimit {
		all, err := s.store.Query(ctx, model.Query{
			Collection: s.cfg.ProductsCollection,
			OrderBy:    []model.Order{{Field: "id", Direction: "asc"}},
			Limit:      s.cfg.ScanLimit,
		})
		if err != nil {
			s.logger.Error("Error scanning product descriptions", "query", query, "error", err)
			return nil, fmt.Errorf("failed to search products: %w", err)
		}
		for _, doc := range all {
			description, _ := model.Document(doc.Data).String("description")
			if containsFold(StripHTML(description), query) {
				add(doc)
			}
		}
	}

	if max > 0 && len(results) > max {
		results = results[:max]
	}
	return results, nil
}

func toItems(docs []*storage.StoredDoc, fields []string) []Item {
	items := make([]Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toItem(doc, fields))
	}
	return items
}

// toItem keeps fields, or every field when fields is nil. The key always
// wins over a data field named "id".
func toItem(doc *storage.StoredDoc, fields []string) Item {
	data := model.Document(doc.Data)
	if fields != nil {
		data = data.Pick(fields...)
	}
	item := Item(storage.PlainMap(data))
	if item == nil {
		item = Item{}
	}
	item["id"] = doc.DocumentID()
	return item
}
