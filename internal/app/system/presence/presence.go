// Package presence answers "who is online". Live presence is not tracked;
// None is the placeholder every caller uses until a real tracker exists.
package presence

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service reports online state.
type Service interface {
	IsOnline(ctx context.Context, user primitive.ObjectID) bool
	OnlineCount(ctx context.Context) int
}

// None reports nobody online.
type None struct{}

func (None) IsOnline(context.Context, primitive.ObjectID) bool { return false }
func (None) OnlineCount(context.Context) int                   { return 0 }
