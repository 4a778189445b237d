package catalog

import "fmt"

type Config struct {
	ProductsCollection   string `yaml:"products_collection"`
	CategoriesCollection string `yaml:"categories_collection"`
	// SearchLimit caps the name-prefix query. Fewer hits than this trigger
	// the description scan.
	SearchLimit int `yaml:"search_limit"`
	// ScanLimit caps the documents read by the description scan. Zero reads
	// the whole collection.
	ScanLimit int `yaml:"scan_limit"`
}

func DefaultConfig() Config {
	return Config{
		ProductsCollection:   "products",
		CategoriesCollection: "categories",
		SearchLimit:          8,
	}
}

func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.ProductsCollection == "" {
		c.ProductsCollection = defaults.ProductsCollection
	}
	if c.CategoriesCollection == "" {
		c.CategoriesCollection = defaults.CategoriesCollection
	}
	if c.SearchLimit == 0 {
		c.SearchLimit = defaults.SearchLimit
	}
}

func (c *Config) ApplyEnvOverrides() {}

func (c *Config) ResolvePaths(_ string) {}

func (c *Config) Validate() error {
	if c.SearchLimit < 1 {
		return fmt.Errorf("catalog: search_limit must be positive")
	}
	if c.ScanLimit < 0 {
		return fmt.Errorf("catalog: scan_limit must not be negative")
	}
	if c.ProductsCollection == c.CategoriesCollection {
		return fmt.Errorf("catalog: products and categories collections must differ")
	}
	return nil
}
