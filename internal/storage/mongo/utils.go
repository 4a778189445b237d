package mongo

import (
	"github.com/storefrontbase/storefront/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
)

// makeFilterBSON translates query filters. Several operators on the same
// field are merged into one sub-document, so a range like
// {name >= "a", name <= "a"} keeps both bounds.
func makeFilterBSON(filters model.Filters) bson.M {
	bsonFilter := bson.M{}

	for _, f := range filters {
		fieldName := mapField(f.Field)
		op := mapOp(f.Op)
		if op == "" {
			continue
		}
		if existing, ok := bsonFilter[fieldName].(bson.M); ok {
			existing[op] = f.Value
			continue
		}
		bsonFilter[fieldName] = bson.M{op: f.Value}
	}

	return bsonFilter
}

func makeSortBSON(orders []model.Order) bson.D {
	sort := bson.D{}
	for _, o := range orders {
		dir := 1
		if o.Direction == "desc" {
			dir = -1
		}
		sort = append(sort, bson.E{Key: mapField(o.Field), Value: dir})
	}
	return sort
}

// makeProjection keeps the bookkeeping fields and the selected data fields.
func makeProjection(fields []string) bson.M {
	if len(fields) == 0 {
		return nil
	}
	proj := bson.M{
		"_id":        1,
		"collection": 1,
		"created_at": 1,
		"updated_at": 1,
		"version":    1,
	}
	for _, f := range fields {
		proj[mapField(f)] = 1
	}
	return proj
}

func mapField(field string) string {
	switch field {
	case "_id", "id":
		return "_id"
	case "collection":
		return "collection"
	case "updatedAt":
		return "updated_at"
	case "createdAt":
		return "created_at"
	case "version":
		return "version"
	default:
		return "data." + field
	}
}

func mapOp(op model.FilterOp) string {
	switch op {
	case model.OpEq:
		return "$eq"
	case model.OpNe:
		return "$ne"
	case model.OpGt:
		return "$gt"
	case model.OpGte:
		return "$gte"
	case model.OpLt:
		return "$lt"
	case model.OpLte:
		return "$lte"
	case model.OpIn:
		return "$in"
	default:
		return ""
	}
}
