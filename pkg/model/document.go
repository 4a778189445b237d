package model

// Document is a schemaless JSON-like object read from the document store.
//
// Reads go through the accessors below so that a missing field, or a field
// holding an unexpected type, is reported as absent rather than panicking.
type Document map[string]interface{}

// Get returns the raw value stored under key.
func (doc Document) Get(key string) (interface{}, bool) {
	if doc == nil {
		return nil, false
	}
	v, ok := doc[key]
	return v, ok
}

// String returns the value under key if it is a string.
func (doc Document) String(key string) (string, bool) {
	v, ok := doc.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether key is present, whatever its value.
func (doc Document) Has(key string) bool {
	_, ok := doc.Get(key)
	return ok
}

// Clone returns a shallow copy. Nested values are shared.
func (doc Document) Clone() Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// Pick returns a new document holding only the requested keys that are
// present in doc.
func (doc Document) Pick(keys ...string) Document {
	out := make(Document, len(keys))
	for _, k := range keys {
		if v, ok := doc.Get(k); ok {
			out[k] = v
		}
	}
	return out
}
