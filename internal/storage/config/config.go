package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Mongo    MongoConfig    `yaml:"mongo"`
	Document DocumentLayout `yaml:"document"`
	User     UserLayout     `yaml:"user"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri"`
	DatabaseName   string        `yaml:"database_name"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// DocumentLayout names the Mongo collections holding application documents.
// Every logical collection (products, categories, users, ...) shares
// DataCollection; SysCollection holds internal state such as checkpoints.
type DocumentLayout struct {
	DataCollection string `yaml:"data_collection"`
	SysCollection  string `yaml:"sys_collection"`
}

type UserLayout struct {
	Collection string `yaml:"collection"`
}

func DefaultConfig() Config {
	return Config{
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			DatabaseName:   "storefront",
			ConnectTimeout: 10 * time.Second,
		},
		Document: DocumentLayout{
			DataCollection: "documents",
			SysCollection:  "sys",
		},
		User: UserLayout{
			Collection: "auth_users",
		},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Mongo.URI == "" {
		c.Mongo.URI = defaults.Mongo.URI
	}
	if c.Mongo.DatabaseName == "" {
		c.Mongo.DatabaseName = defaults.Mongo.DatabaseName
	}
	if c.Mongo.ConnectTimeout == 0 {
		c.Mongo.ConnectTimeout = defaults.Mongo.ConnectTimeout
	}
	if c.Document.DataCollection == "" {
		c.Document.DataCollection = defaults.Document.DataCollection
	}
	if c.Document.SysCollection == "" {
		c.Document.SysCollection = defaults.Document.SysCollection
	}
	if c.User.Collection == "" {
		c.User.Collection = defaults.User.Collection
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("STOREFRONT_MONGO_URI"); val != "" {
		c.Mongo.URI = val
	}
	if val := os.Getenv("STOREFRONT_MONGO_DATABASE"); val != "" {
		c.Mongo.DatabaseName = val
	}
}

// ResolvePaths is a no-op, storage has no file paths.
func (c *Config) ResolvePaths(_ string) { _ = c }

func (c *Config) Validate() error {
	if c.Mongo.DatabaseName == "" {
		return fmt.Errorf("storage.mongo.database_name is required")
	}
	if c.Document.DataCollection == c.Document.SysCollection {
		return fmt.Errorf("storage.document.data_collection and sys_collection must differ")
	}
	if c.Document.DataCollection == c.User.Collection {
		return fmt.Errorf("storage.user.collection must differ from storage.document.data_collection")
	}
	return nil
}
