package conversationstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	messagestore "github.com/dalemusser/codeswitch/internal/app/store/messages"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/txn"
	"github.com/dalemusser/codeswitch/internal/domain/conversation"
	"github.com/dalemusser/codeswitch/internal/domain/engagement"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c        *mongo.Collection
	users    *mongo.Collection
	client   *mongo.Client
	messages *messagestore.Store
	now      func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("conversations"),
		users:    db.Collection("users"),
		client:   db.Client(),
		messages: messagestore.New(db),
		now:      time.Now,
	}
}

// NewConversation is the creator-supplied part of a conversation.
type NewConversation struct {
	Name         string
	Type         string
	Participants []primitive.ObjectID
}

// Create starts a conversation between creator and in.Participants. A
// direct conversation over the same participant set is reused instead of
// duplicated; created reports which happened.
func (s *Store) Create(ctx context.Context, creator primitive.ObjectID, in NewConversation) (conv *models.Conversation, created bool, err error) {
	typ := in.Type
	if typ == "" {
		typ = models.ConversationDirect
	}
	if typ != models.ConversationDirect && typ != models.ConversationBastion {
		return nil, false, apperr.BadRequest("conversation_type must be direct or bastion")
	}

	participants := conversation.Normalize(creator, in.Participants)
	if len(participants) < 2 {
		return nil, false, apperr.BadRequest("a conversation needs at least one other participant")
	}
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": participants}})
	if err != nil {
		return nil, false, fmt.Errorf("check participants: %w", err)
	}
	if int(n) != len(participants) {
		return nil, false, apperr.NotFound("participant not found")
	}

	key := ""
	if typ == models.ConversationDirect {
		key = conversation.Key(participants)
		if existing, err := s.findByKey(ctx, key); err == nil {
			return existing, false, nil
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, fmt.Errorf("find conversation: %w", err)
		}
	}

	now := s.now().UTC()
	c := models.Conversation{
		ID:              primitive.NewObjectID(),
		Name:            strings.TrimSpace(in.Name),
		Type:            typ,
		Participants:    participants,
		ParticipantsKey: key,
		CreatedBy:       creator,
		UnreadCount:     map[string]int{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if key != "" && wafflemongo.IsDup(err) {
			// a concurrent create won; hand back its conversation
			existing, ferr := s.findByKey(ctx, key)
			if ferr != nil {
				return nil, false, fmt.Errorf("find conversation after duplicate: %w", ferr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("insert conversation: %w", err)
	}
	return &c, true, nil
}

func (s *Store) findByKey(ctx context.Context, key string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.c.FindOne(ctx, bson.M{
		"conversation_type": models.ConversationDirect,
		"participants_key":  key,
	}).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListForUser returns user's conversations, most recently updated first.
func (s *Store) ListForUser(ctx context.Context, user primitive.ObjectID) ([]models.Conversation, error) {
	cur, err := s.c.Find(ctx, bson.M{"participants": user},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find conversations: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Conversation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return out, nil
}

// GetForUser loads a conversation user participates in.
func (s *Store) GetForUser(ctx context.Context, id, user primitive.ObjectID) (*models.Conversation, error) {
	var c models.Conversation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("conversation not found")
		}
		return nil, err
	}
	if !engagement.Contains(c.Participants, user) {
		return nil, apperr.Forbidden("not a participant in this conversation")
	}
	return &c, nil
}

// Exists reports whether id names a conversation.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// MarkRead zeroes user's unread counter.
func (s *Store) MarkRead(ctx context.Context, id, user primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "participants": user},
		bson.M{"$set": bson.M{conversation.UnreadField(user): 0}})
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if res.MatchedCount == 0 {
		_, err := s.GetForUser(ctx, id, user)
		return err
	}
	return nil
}

// ListMessages returns a page of messages and marks the conversation read
// for user.
func (s *Store) ListMessages(ctx context.Context, id, user primitive.ObjectID, w paging.Window) ([]models.Message, error) {
	if _, err := s.GetForUser(ctx, id, user); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByConversation(ctx, id, w)
	if err != nil {
		return nil, err
	}
	if err := s.MarkRead(ctx, id, user); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Send appends a message from sender and updates the unread ledger: every
// other participant gets one more unread message.
func (s *Store) Send(ctx context.Context, id primitive.ObjectID, sender models.AuthorSnapshot, in messagestore.NewMessage) (models.Message, error) {
	if err := in.Validate(); err != nil {
		return models.Message{}, err
	}

	var out models.Message
	err := txn.Run(ctx, s.client, func(ctx context.Context) error {
		c, err := s.GetForUser(ctx, id, sender.UserID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		// Ledger before message: a message is never stored without its
		// unread ticks.
		recipients := conversation.Recipients(c.Participants, sender.UserID)
		update := messagestore.LedgerUpdate(recipients, in.Content, now, "updated_at")
		res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "participants": sender.UserID}, update)
		if err != nil {
			return fmt.Errorf("update ledger: %w", err)
		}
		if res.MatchedCount == 0 {
			return apperr.Forbidden("not a participant in this conversation")
		}
		out, err = s.messages.Insert(ctx, messagestore.Build(id, in, sender, now))
		return err
	})
	if err != nil {
		return models.Message{}, err
	}
	return out, nil
}
