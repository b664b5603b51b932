package validators

import "go.mongodb.org/mongo-driver/bson"

var WaitlistEntryValidator = bson.M{
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
			"position",
			"sequence",
			"created_at",
		},
		"additionalProperties": true,

		"properties": merge(itinerary, bson.M{
			"_id":          bson.M{"bsonType": "string"},
			"requester_id": boundedString(1, 64),
			"vehicle_id":   boundedString(1, 64),
			"travel_date":  travelDate,
			"position":     bson.M{"bsonType": integer, "minimum": 1},
			"sequence":     bson.M{"bsonType": integer, "minimum": 1},
			"created_at":   bson.M{"bsonType": "date"},
		}),
	},
}

// WaitlistCounterValidator keeps last_sequence and count separate: the first
// only grows, the second follows the live entries.
var WaitlistCounterValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "vehicle_id", "travel_date", "last_sequence", "count"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":           bson.M{"bsonType": "string"},
			"vehicle_id":    boundedString(1, 64),
			"travel_date":   travelDate,
			"last_sequence": bson.M{"bsonType": integer, "minimum": 0},
			"count":         bson.M{"bsonType": integer, "minimum": 0},
		},
	},
}

var VehicleGateValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{"bsonType": "string"},
			"writer": bson.M{
				"bsonType": "object",
				"required": []string{"owner", "expires_at"},
				"properties": bson.M{
					"owner":      bson.M{"bsonType": "string"},
					"expires_at": bson.M{"bsonType": "date"},
				},
			},
			"readers": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"owner", "expires_at"},
					"properties": bson.M{
						"owner":      bson.M{"bsonType": "string"},
						"expires_at": bson.M{"bsonType": "date"},
					},
				},
			},
		},
	},
}

var ScopeLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
