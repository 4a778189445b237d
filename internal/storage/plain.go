package storage

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plain converts values decoded by the Mongo driver into JSON-friendly Go
// values: ordered documents become maps, arrays become slices, and dates
// become time.Time. Everything else is returned unchanged.
//
// Callers that care about key order (the variation flattener) should read
// the primitive.D before converting.
func Plain(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.D:
		out := make(map[string]interface{}, len(val))
		for _, e := range val {
			out[e.Key] = Plain(e.Value)
		}
		return out
	case primitive.M:
		return PlainMap(val)
	case map[string]interface{}:
		return PlainMap(val)
	case primitive.A:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = Plain(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = Plain(e)
		}
		return out
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Decimal128:
		return val.String()
	case bson.Raw:
		var d bson.D
		if err := bson.Unmarshal(val, &d); err != nil {
			return nil
		}
		return Plain(d)
	case time.Time:
		return val.UTC()
	default:
		return v
	}
}

// PlainMap applies Plain to every value of m.
func PlainMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = Plain(v)
	}
	return out
}
