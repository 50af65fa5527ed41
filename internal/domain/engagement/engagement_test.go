package engagement_test

import (
	"testing"

	"github.com/dalemusser/codeswitch/internal/domain/engagement"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToggle_AddsThenRemoves(t *testing.T) {
	u := primitive.NewObjectID()
	other := primitive.NewObjectID()

	set, on := engagement.Toggle([]primitive.ObjectID{other}, u)
	require.True(t, on)
	require.Len(t, set, 2)
	require.True(t, engagement.Contains(set, u))

	set, on = engagement.Toggle(set, u)
	require.False(t, on)
	require.Equal(t, []primitive.ObjectID{other}, set)
}

func TestToggle_DoesNotMutateInput(t *testing.T) {
	u := primitive.NewObjectID()
	in := []primitive.ObjectID{u}
	_, _ = engagement.Toggle(in, u)
	require.Equal(t, []primitive.ObjectID{u}, in)
}

func TestToggleReaction(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	var rs []models.Reaction
	rs = engagement.ToggleReaction(rs, "👍", a)
	require.Len(t, rs, 1)
	require.Equal(t, 1, rs[0].Count)

	rs = engagement.ToggleReaction(rs, "👍", b)
	require.Equal(t, 2, rs[0].Count)
	require.ElementsMatch(t, []primitive.ObjectID{a, b}, rs[0].Users)

	rs = engagement.ToggleReaction(rs, "🎉", a)
	require.Len(t, rs, 2)
	require.Equal(t, "🎉", rs[1].Emoji)

	rs = engagement.ToggleReaction(rs, "👍", a)
	rs = engagement.ToggleReaction(rs, "👍", b)
	require.Len(t, rs, 1, "empty reaction should be removed")
	require.Equal(t, "🎉", rs[0].Emoji)

	for _, r := range rs {
		require.Equal(t, len(r.Users), r.Count)
	}
}

func TestToggleReaction_Involution(t *testing.T) {
	a := primitive.NewObjectID()
	start := []models.Reaction{{Emoji: "🔥", Count: 1, Users: []primitive.ObjectID{primitive.NewObjectID()}}}
	rs := engagement.ToggleReaction(start, "🔥", a)
	rs = engagement.ToggleReaction(rs, "🔥", a)
	require.Equal(t, start, rs)
}
