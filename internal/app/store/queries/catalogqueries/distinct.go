// Package catalogqueries provides read-only lookups that feed the filter
// menus (categories, languages) of the public catalogs.
package catalogqueries

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DistinctStrings returns the sorted, non-empty distinct string values of
// field across documents matching filter.
func DistinctStrings(ctx context.Context, c *mongo.Collection, field string, filter bson.M) ([]string, error) {
	if filter == nil {
		filter = bson.M{}
	}
	vals, err := c.Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("distinct %s.%s: %w", c.Name(), field, err)
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}
