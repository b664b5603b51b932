package validators

import "go.mongodb.org/mongo-driver/bson"

// Go ints are stored as int32 when they fit and int64 otherwise.
var integer = []string{"int", "long"}

var number = []string{"int", "long", "double"}

func boundedString(min, max int) bson.M {
	return bson.M{"bsonType": "string", "minLength": min, "maxLength": max}
}

var travelDate = bson.M{
	"bsonType": "string",
	"pattern":  `^\d{4}-\d{2}-\d{2}$`,
}

var segmentRefs = bson.M{
	"bsonType": "array",
	"minItems": 1,
	"items": bson.M{
		"bsonType": "object",
		"required": []string{"index", "from", "to"},
		"properties": bson.M{
			"index": bson.M{"bsonType": integer, "minimum": 0},
			"from":  bson.M{"bsonType": "string"},
			"to":    bson.M{"bsonType": "string"},
		},
	},
}

// itinerary is shared by bookings and waitlist entries.
var itinerary = bson.M{
	"start_station":  boundedString(1, 100),
	"end_station":    boundedString(1, 100),
	"seats":          bson.M{"bsonType": integer, "minimum": 1},
	"segments":       segmentRefs,
	"route_revision": bson.M{"bsonType": integer, "minimum": 1},
	"distance":       bson.M{"bsonType": number, "minimum": 0},
	"fare":           bson.M{"bsonType": number, "minimum": 0},
	"price":          bson.M{"bsonType": number, "minimum": 0},
	"passenger": bson.M{
		"bsonType": "object",
		"required": []string{"name"},
		"properties": bson.M{
			"name":  boundedString(2, 100),
			"phone": bson.M{"bsonType": "string"},
			"email": bson.M{"bsonType": "string"},
			"age":   bson.M{"bsonType": integer, "minimum": 0, "maximum": 130},
		},
	},
}

func merge(parts ...bson.M) bson.M {
	out := bson.M{}
	for _, p := range parts {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}
