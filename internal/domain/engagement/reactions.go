package engagement

import (
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToggleReaction flips user's reaction with emoji. Entries that reach zero
// users are dropped; a new emoji is appended at the end. The input slice is
// not modified.
func ToggleReaction(reactions []models.Reaction, emoji string, user primitive.ObjectID) []models.Reaction {
	out := make([]models.Reaction, 0, len(reactions)+1)
	matched := false
	for _, r := range reactions {
		if r.Emoji != emoji {
			out = append(out, r)
			continue
		}
		matched = true
		users, _ := Toggle(r.Users, user)
		if len(users) == 0 {
			continue
		}
		out = append(out, models.Reaction{Emoji: emoji, Count: len(users), Users: users})
	}
	if !matched {
		out = append(out, models.Reaction{Emoji: emoji, Count: 1, Users: []primitive.ObjectID{user}})
	}
	return out
}
