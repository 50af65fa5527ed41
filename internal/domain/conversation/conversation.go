// Package conversation holds the participant-set and preview rules shared
// by direct conversations and bastions.
package conversation

import (
	"sort"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PreviewLimit is the number of characters kept in last_message.
const PreviewLimit = 100

// Normalize returns {creator} ∪ participants with duplicates and zero ids
// removed. The creator is always first; the rest keep their input order.
func Normalize(creator primitive.ObjectID, participants []primitive.ObjectID) []primitive.ObjectID {
	out := []primitive.ObjectID{creator}
	seen := map[primitive.ObjectID]struct{}{creator: {}}
	for _, p := range participants {
		if p.IsZero() {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Key is an order-independent identity for a participant set.
func Key(set []primitive.ObjectID) string {
	hexes := make([]string, len(set))
	for i, id := range set {
		hexes[i] = id.Hex()
	}
	sort.Strings(hexes)
	return strings.Join(hexes, ":")
}

// Recipients is every participant except the sender.
func Recipients(set []primitive.ObjectID, sender primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(set))
	for _, id := range set {
		if id != sender {
			out = append(out, id)
		}
	}
	return out
}

// Preview truncates content to PreviewLimit characters, adding "..." when
// anything was cut.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLimit]) + "..."
}

// UnreadField is the dotted path of a user's unread counter.
func UnreadField(user primitive.ObjectID) string {
	return "unread_count." + user.Hex()
}
