package catalogqueries_test

import (
	"reflect"
	"testing"

	"github.com/dalemusser/codeswitch/internal/app/store/queries/catalogqueries"
	"github.com/dalemusser/codeswitch/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDistinctStrings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("things")
	docs := []any{
		bson.M{"kind": "zeta", "live": true},
		bson.M{"kind": "alpha", "live": true},
		bson.M{"kind": "alpha", "live": true},
		bson.M{"kind": "", "live": true},
		bson.M{"kind": "hidden", "live": false},
	}
	if _, err := c.InsertMany(ctx, docs); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := catalogqueries.DistinctStrings(ctx, c, "kind", bson.M{"live": true})
	if err != nil {
		t.Fatalf("DistinctStrings failed: %v", err)
	}
	want := []string{"alpha", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
