package messagestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/inputval"
	"github.com/dalemusser/codeswitch/internal/app/system/limits"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/domain/conversation"
	"github.com/dalemusser/codeswitch/internal/domain/engagement"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	maxReactionAttempts = 5
	maxEmojiRunes       = 16
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

// NewMessage is the sender-supplied part of a message.
type NewMessage struct {
	Content     string
	MessageType string
	Language    string
}

// Validate trims and checks in. Message bodies are stored verbatim so code
// snippets survive; clients render them as text.
func (in *NewMessage) Validate() error {
	in.Content = strings.TrimSpace(in.Content)
	in.Language = strings.TrimSpace(in.Language)
	if in.MessageType == "" {
		in.MessageType = models.MessageText
	}
	if err := inputval.Length("content", in.Content, 1, limits.MessageMax); err != nil {
		return err
	}
	return inputval.OneOf("message_type", in.MessageType, models.MessageText, models.MessageCode)
}

// Build stamps a message for thread from sender.
func Build(thread primitive.ObjectID, in NewMessage, sender models.AuthorSnapshot, now time.Time) models.Message {
	return models.Message{
		ID:             primitive.NewObjectID(),
		ConversationID: thread,
		Content:        in.Content,
		MessageType:    in.MessageType,
		Language:       in.Language,
		SenderID:       sender.UserID,
		SenderName:     sender.Name,
		SenderAvatar:   sender.Avatar,
		Reactions:      []models.Reaction{},
		ReactionsRev:   0,
		CreatedAt:      now,
	}
}

// Insert stores m as built by Build.
func (s *Store) Insert(ctx context.Context, m models.Message) (models.Message, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.Reactions == nil {
		m.Reactions = []models.Reaction{}
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// ListByConversation returns a page of the newest messages in thread, in
// chronological order.
func (s *Store) ListByConversation(ctx context.Context, thread primitive.ObjectID, w paging.Window) ([]models.Message, error) {
	opts := w.Apply(options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	cur, err := s.c.Find(ctx, bson.M{"conversation_id": thread}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var m models.Message
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, err
	}
	return &m, nil
}

// ToggleReaction flips user's emoji reaction. The write is conditioned on
// the reactions_rev read with the message; a concurrent change forces a
// re-read and another attempt.
func (s *Store) ToggleReaction(ctx context.Context, id, user primitive.ObjectID, emoji string) (*models.Message, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || utf8.RuneCountInString(emoji) > maxEmojiRunes {
		return nil, apperr.BadRequest("invalid emoji")
	}

	for attempt := 0; attempt < maxReactionAttempts; attempt++ {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		next := engagement.ToggleReaction(cur.Reactions, emoji, user)

		var out models.Message
		err = s.c.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "reactions_rev": cur.ReactionsRev},
			bson.M{"$set": bson.M{"reactions": next}, "$inc": bson.M{"reactions_rev": 1}},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update reactions: %w", err)
		}
		return &out, nil
	}
	return nil, fmt.Errorf("toggle reaction: too much contention")
}

// LedgerUpdate is the thread-side half of a send: one unread tick per
// recipient, the preview, and the activity timestamps named in touch.
func LedgerUpdate(recipients []primitive.ObjectID, content string, now time.Time, touch ...string) bson.M {
	set := bson.M{
		"last_message":      conversation.Preview(content),
		"last_message_time": now,
	}
	for _, f := range touch {
		set[f] = now
	}
	update := bson.M{"$set": set}
	if len(recipients) > 0 {
		inc := bson.M{}
		for _, r := range recipients {
			inc[conversation.UnreadField(r)] = 1
		}
		update["$inc"] = inc
	}
	return update
}
