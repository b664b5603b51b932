package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_EveryCollectionHasSchemaAndIndexes(t *testing.T) {
	want := []string{"Vehicles", "Inventories", "Bookings", "Waitlist_entries", "Waitlist_counters", "Scope_locks", "Vehicle_gates"}

	defs := Collections()
	if len(defs) != len(want) {
		t.Fatalf("got %d collections, want %d", len(defs), len(want))
	}
	for _, name := range want {
		def, ok := defs[name]
		if !ok {
			t.Errorf("missing collection %s", name)
			continue
		}
		schema, ok := def.Validator["$jsonSchema"].(bson.M)
		if !ok {
			t.Errorf("%s: validator has no $jsonSchema", name)
			continue
		}
		if _, ok := schema["required"].([]string); !ok {
			t.Errorf("%s: schema lists no required fields", name)
		}
		if len(def.Indexes) == 0 {
			t.Errorf("%s: no indexes", name)
		}
	}
}

func TestScopeLocksExpireByTTL(t *testing.T) {
	idx := ScopeLocksIndexes[0]
	if idx.Options == nil || idx.Options.ExpireAfterSeconds == nil || *idx.Options.ExpireAfterSeconds != 0 {
		t.Fatalf("expires_at index must be a TTL index with expireAfterSeconds=0")
	}
}

func TestVehicleGateLeasesNeedOwnerAndExpiry(t *testing.T) {
	props := validatorProperties(t, "Vehicle_gates")
	writer := props["writer"].(bson.M)
	readers := props["readers"].(bson.M)["items"].(bson.M)
	for name, lease := range map[string]bson.M{"writer": writer, "readers": readers} {
		required, _ := lease["required"].([]string)
		if len(required) != 2 || required[0] != "owner" || required[1] != "expires_at" {
			t.Errorf("%s required = %v", name, required)
		}
	}
}

func TestInventorySchemaForbidsNegativeSeats(t *testing.T) {
	props := validatorProperties(t, "Inventories")
	segments := props["segments"].(bson.M)
	items := segments["items"].(bson.M)
	seats := items["properties"].(bson.M)["seats_available"].(bson.M)
	if seats["minimum"] != 0 {
		t.Errorf("seats_available minimum = %v, want 0", seats["minimum"])
	}
}

func validatorProperties(t *testing.T, collection string) bson.M {
	t.Helper()
	schema := Collections()[collection].Validator["$jsonSchema"].(bson.M)
	return schema["properties"].(bson.M)
}
