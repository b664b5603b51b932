package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"requester_id",
			"vehicle_id",
			"travel_date",
			"start_station",
			"end_station",
			"seats",
			"segments",
			"route_revision",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": merge(itinerary, bson.M{
			"_id":          bson.M{"bsonType": "string"},
			"requester_id": boundedString(1, 64),
			"vehicle_id":   boundedString(1, 64),
			"travel_date":  travelDate,
			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"cancelled",
				},
			},
			"promoted_from": bson.M{"bsonType": "string"},
			"created_at":    bson.M{"bsonType": "date"},
			"cancelled_at":  bson.M{"bsonType": []string{"date", "null"}},
		}),
	},
}
