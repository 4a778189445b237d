package storage

import (
	"go.mongodb.org/mongo-driver/bson"
)

// storedDocFields mirrors StoredDoc with data decoded as a bson.D. Decoding
// through a bson.D makes the driver decode every nested document as a
// primitive.D as well, so nested key order survives.
type storedDocFields struct {
	Id         string `bson:"_id"`
	Collection string `bson:"collection"`
	UpdatedAt  int64  `bson:"updated_at"`
	CreatedAt  int64  `bson:"created_at"`
	Version    int64  `bson:"version"`
	Data       bson.D `bson:"data"`
}

// UnmarshalBSON decodes a stored document keeping nested documents ordered.
func (d *StoredDoc) UnmarshalBSON(raw []byte) error {
	var f storedDocFields
	if err := bson.Unmarshal(raw, &f); err != nil {
		return err
	}
	*d = StoredDoc{
		Id:         f.Id,
		Collection: f.Collection,
		UpdatedAt:  f.UpdatedAt,
		CreatedAt:  f.CreatedAt,
		Version:    f.Version,
		Data:       FieldsOf(f.Data),
	}
	return nil
}

// FieldsOf turns the top level of d into a map. Nested values are left as
// decoded. A nil d gives a nil map.
func FieldsOf(d bson.D) map[string]interface{} {
	if d == nil {
		return nil
	}
	out := make(map[string]interface{}, len(d))
	for _, e := range d {
		out[e.Key] = e.Value
	}
	return out
}
