package storage

import "github.com/storefrontbase/storefront/pkg/model"

// Query is the storage-level query type.
type Query = model.Query
