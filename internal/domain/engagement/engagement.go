// Package engagement holds the pure rules for per-user toggles: likes,
// bookmarks and emoji reactions. Storage applies these rules atomically.
package engagement

import "go.mongodb.org/mongo-driver/bson/primitive"

// Result is what a like toggle reports back to the caller.
type Result struct {
	Active bool `json:"active"`
	Total  int  `json:"total"`
}

// Contains reports whether user is in set.
func Contains(set []primitive.ObjectID, user primitive.ObjectID) bool {
	for _, id := range set {
		if id == user {
			return true
		}
	}
	return false
}

// Toggle flips user's membership in set. It returns the new set and whether
// the user is now a member. The input slice is not modified.
func Toggle(set []primitive.ObjectID, user primitive.ObjectID) ([]primitive.ObjectID, bool) {
	next := make([]primitive.ObjectID, 0, len(set)+1)
	found := false
	for _, id := range set {
		if id == user {
			found = true
			continue
		}
		next = append(next, id)
	}
	if found {
		return next, false
	}
	return append(next, user), true
}
