package indexsync

import (
	"reflect"
	"sort"

	"github.com/storefrontbase/storefront/pkg/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Normalize returns a copy of doc prepared for indexing: strip fields are
// removed and every flatten field holding a mapping is replaced by the
// concatenation of its list-valued entries. Field types are not validated.
func Normalize(doc model.Document, rule Rule) model.Document {
	out := doc.Clone()
	if out == nil {
		out = model.Document{}
	}

	for _, f := range rule.StripFields {
		delete(out, f)
	}

	for _, f := range rule.FlattenFields {
		v, ok := out.Get(f)
		if !ok {
			continue
		}
		if flat, ok := flattenMapping(v); ok {
			out[f] = flat
		}
	}

	return out
}

// flattenMapping concatenates the list values of a mapping in its
// iteration order. Ordered BSON documents keep their stored order; plain
// maps are walked in ascending key order. Entries that are not lists are
// skipped. ok is false when v is not a mapping at all.
func flattenMapping(v interface{}) (flat []interface{}, ok bool) {
	flat = []interface{}{}

	switch m := v.(type) {
	case primitive.D:
		for _, e := range m {
			flat = appendList(flat, e.Value)
		}
		return flat, true
	case map[string]interface{}:
		for _, k := range sortedKeys(m) {
			flat = appendList(flat, m[k])
		}
		return flat, true
	case primitive.M:
		for _, k := range sortedKeys(m) {
			flat = appendList(flat, m[k])
		}
		return flat, true
	case model.Document:
		for _, k := range sortedKeys(m) {
			flat = appendList(flat, m[k])
		}
		return flat, true
	}
	return nil, false
}

func sortedKeys[M ~map[string]interface{}](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// appendList appends the elements of v if it is a list. Strings and byte
// slices are scalars here.
func appendList(dst []interface{}, v interface{}) []interface{} {
	switch list := v.(type) {
	case primitive.A:
		return append(dst, list...)
	case []interface{}:
		return append(dst, list...)
	case []string:
		for _, s := range list {
			dst = append(dst, s)
		}
		return dst
	case []byte, nil:
		return dst
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return dst
	}
	for i := 0; i < rv.Len(); i++ {
		dst = append(dst, rv.Index(i).Interface())
	}
	return dst
}
