package validators

import "go.mongodb.org/mongo-driver/bson"

// InventoryValidator enforces 0 <= seats_available on every stored segment.
// The upper bound depends on the document's capacity and is checked by the
// service before writing.
var InventoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"vehicle_id",
			"travel_date",
			"route_revision",
			"capacity",
			"segments",
			"version",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":            bson.M{"bsonType": "string"},
			"vehicle_id":     boundedString(1, 64),
			"travel_date":    travelDate,
			"route_revision": bson.M{"bsonType": integer, "minimum": 1},
			"capacity":       bson.M{"bsonType": integer, "minimum": 1},
			"segments": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"from", "to", "seats_available"},
					"properties": bson.M{
						"from":            bson.M{"bsonType": "string"},
						"to":              bson.M{"bsonType": "string"},
						"seats_available": bson.M{"bsonType": integer, "minimum": 0},
					},
				},
			},
			"version":    bson.M{"bsonType": integer, "minimum": 0},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
