package validators

import "go.mongodb.org/mongo-driver/bson"

var VehicleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"number",
			"name",
			"source",
			"destination",
			"capacity",
			"stops",
			"segments",
			"route_revision",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":            boundedString(1, 64),
			"number":         boundedString(1, 20),
			"name":           boundedString(2, 100),
			"source":         boundedString(1, 100),
			"destination":    boundedString(1, 100),
			"departure_time": bson.M{"bsonType": "string"},
			"arrival_time":   bson.M{"bsonType": "string"},
			"capacity": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  5000,
			},
			"stops": bson.M{
				"bsonType": "array",
				"minItems": 2,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"station", "km", "order"},
					"properties": bson.M{
						"station": boundedString(1, 100),
						"km":      bson.M{"bsonType": number, "minimum": 0},
						"order":   bson.M{"bsonType": integer, "minimum": 0},
					},
				},
			},
			"segments": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"from", "to", "seats_available"},
					"properties": bson.M{
						"seats_available": bson.M{"bsonType": integer, "minimum": 0},
					},
				},
			},
			"route_revision": bson.M{"bsonType": integer, "minimum": 1},
			"base_fare":      bson.M{"bsonType": number, "minimum": 0},
			"created_at":     bson.M{"bsonType": "date"},
			"updated_at":     bson.M{"bsonType": "date"},
		},
	},
}
