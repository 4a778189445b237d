package model

// FilterOp defines the supported filter operators.
type FilterOp string

const (
	OpEq  FilterOp = "==" // Equal
	OpNe  FilterOp = "!=" // Not equal
	OpGt  FilterOp = ">"  // Greater than
	OpGte FilterOp = ">=" // Greater than or equal
	OpLt  FilterOp = "<"  // Less than
	OpLte FilterOp = "<=" // Less than or equal
	OpIn  FilterOp = "in" // Value in array
)

// IsValid checks if the operator is valid.
func (op FilterOp) IsValid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn:
		return true
	}
	return false
}

// Filters is a slice of Filter.
type Filters []Filter

// Filter represents a query filter
type Filter struct {
	Field string      `json:"field"`
	Op    FilterOp    `json:"op"`
	Value interface{} `json:"value"`
}

// Validate checks if the filter is valid.
func (f Filter) Validate() bool {
	if f.Field == "" {
		return false
	}
	return f.Op.IsValid()
}

// Order is a single sort key.
type Order struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // asc or desc
}

// Query selects documents of one collection.
type Query struct {
	Collection string  `json:"collection"`
	Filters    Filters `json:"filters,omitempty"`
	OrderBy    []Order `json:"orderBy,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	// Select restricts the returned data fields. Empty means all fields.
	Select []string `json:"select,omitempty"`
}

// Validate checks the query shape.
func (q Query) Validate() error {
	if q.Collection == "" {
		return ErrInvalidQuery
	}
	for _, f := range q.Filters {
		if !f.Validate() {
			return ErrInvalidQuery
		}
	}
	if q.Limit < 0 {
		return ErrInvalidQuery
	}
	return nil
}

// PrefixUpperBound is appended to a prefix to form the inclusive upper bound
// of a range query that matches every string starting with the prefix.
const PrefixUpperBound = "\uf8ff"

// PrefixFilters matches string fields that start with prefix.
func PrefixFilters(field, prefix string) Filters {
	return Filters{
		{Field: field, Op: OpGte, Value: prefix},
		{Field: field, Op: OpLte, Value: prefix + PrefixUpperBound},
	}
}
