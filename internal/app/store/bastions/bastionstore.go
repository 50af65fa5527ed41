package bastionstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	messagestore "github.com/dalemusser/codeswitch/internal/app/store/messages"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/htmlsanitize"
	"github.com/dalemusser/codeswitch/internal/app/system/inputval"
	"github.com/dalemusser/codeswitch/internal/app/system/limits"
	"github.com/dalemusser/codeswitch/internal/app/system/normalize"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/txn"
	"github.com/dalemusser/codeswitch/internal/domain/conversation"
	"github.com/dalemusser/codeswitch/internal/domain/engagement"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JoinOutcome distinguishes a real join from a repeat or a refusal.
type JoinOutcome int

const (
	Joined JoinOutcome = iota
	AlreadyMember
	// Declined means the bastion is at max_members.
	Declined
)

type Store struct {
	c        *mongo.Collection
	client   *mongo.Client
	messages *messagestore.Store
	now      func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("bastions"),
		client:   db.Client(),
		messages: messagestore.New(db),
		now:      time.Now,
	}
}

// NewBastion is the creator-supplied part of a bastion.
type NewBastion struct {
	Name        string
	Description string
	IsPrivate   bool
	MaxMembers  int // 0 means the default
	Tags        []string
}

// Create inserts a bastion with creator as its only member.
func (s *Store) Create(ctx context.Context, creator primitive.ObjectID, in NewBastion) (models.Bastion, error) {
	name := htmlsanitize.Text(in.Name)
	desc := htmlsanitize.Text(in.Description)
	maxMembers := in.MaxMembers
	if maxMembers == 0 {
		maxMembers = models.DefaultBastionMembers
	}

	if err := inputval.Length("name", name, limits.BastionNameMin, limits.BastionNameMax); err != nil {
		return models.Bastion{}, err
	}
	if err := inputval.Length("description", desc, limits.BastionDescriptionMin, limits.BastionDescriptionMax); err != nil {
		return models.Bastion{}, err
	}
	if err := inputval.Range("max_members", maxMembers, models.BastionMinMembers, models.BastionMaxMembers); err != nil {
		return models.Bastion{}, err
	}

	now := s.now().UTC()
	b := models.Bastion{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Description:  desc,
		IsPrivate:    in.IsPrivate,
		MaxMembers:   maxMembers,
		Tags:         normalize.Tags(in.Tags),
		Avatar:       models.DefaultBastionAvatar,
		CreatorID:    creator,
		Members:      []primitive.ObjectID{creator},
		UnreadCount:  map[string]int{},
		LastActivity: now,
		CreatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return models.Bastion{}, fmt.Errorf("insert bastion: %w", err)
	}
	return b, nil
}

// PublicFilter narrows ListPublic.
type PublicFilter struct {
	Search string
	Tags   []string
}

// ListPublic returns non-private bastions, most recently active first.
func (s *Store) ListPublic(ctx context.Context, f PublicFilter, w paging.Window) ([]models.Bastion, error) {
	q := bson.M{"is_private": false}
	if f.Search != "" {
		q["$or"] = bson.A{
			bson.M{"name_ci": primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(f.Search))}},
			bson.M{"description": primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}},
		}
	}
	if tags := normalize.Tags(f.Tags); len(tags) > 0 {
		q["tags"] = bson.M{"$in": tags}
	}
	return s.find(ctx, q, w.Apply(options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}})))
}

// ListForUser returns the bastions user belongs to, most recently active
// first.
func (s *Store) ListForUser(ctx context.Context, user primitive.ObjectID) ([]models.Bastion, error) {
	return s.find(ctx, bson.M{"members": user}, options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}}))
}

func (s *Store) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Bastion, error) {
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find bastions: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Bastion{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode bastions: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Bastion, error) {
	var b models.Bastion
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("bastion not found")
		}
		return nil, err
	}
	return &b, nil
}

// GetForMember loads a bastion user belongs to.
func (s *Store) GetForMember(ctx context.Context, id, user primitive.ObjectID) (*models.Bastion, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !engagement.Contains(b.Members, user) {
		return nil, apperr.Forbidden("not a member of this bastion")
	}
	return b, nil
}

// Join adds user when there is room. Membership and capacity are checked
// in the same update, so concurrent joins can never overfill a bastion.
func (s *Store) Join(ctx context.Context, id, user primitive.ObjectID) (JoinOutcome, error) {
	filter := bson.M{
		"_id":     id,
		"members": bson.M{"$ne": user},
		"$expr":   bson.M{"$lt": bson.A{bson.M{"$size": "$members"}, "$max_members"}},
	}
	update := bson.M{
		"$push": bson.M{"members": user},
		"$set":  bson.M{"last_activity": s.now().UTC()},
	}
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return Declined, fmt.Errorf("join bastion: %w", err)
	}
	if res.MatchedCount == 1 {
		return Joined, nil
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return Declined, err
	}
	if engagement.Contains(b.Members, user) {
		return AlreadyMember, nil
	}
	return Declined, nil
}

// Leave removes user unconditionally; the creator gets no special
// treatment. Leaving a bastion you are not in is a no-op.
func (s *Store) Leave(ctx context.Context, id, user primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull":  bson.M{"members": user},
		"$unset": bson.M{conversation.UnreadField(user): ""},
		"$set":   bson.M{"last_activity": s.now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("leave bastion: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("bastion not found")
	}
	return nil
}

// MarkRead zeroes user's unread counter.
func (s *Store) MarkRead(ctx context.Context, id, user primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members": user},
		bson.M{"$set": bson.M{conversation.UnreadField(user): 0}})
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if res.MatchedCount == 0 {
		_, err := s.GetForMember(ctx, id, user)
		return err
	}
	return nil
}

// ListMessages returns a page of messages and marks the bastion read for
// user.
func (s *Store) ListMessages(ctx context.Context, id, user primitive.ObjectID, w paging.Window) ([]models.Message, error) {
	if _, err := s.GetForMember(ctx, id, user); err != nil {
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

// Send appends a message from sender; every other member gets one more
// unread message.
func (s *Store) Send(ctx context.Context, id primitive.ObjectID, sender models.AuthorSnapshot, in messagestore.NewMessage) (models.Message, error) {
	if err := in.Validate(); err != nil {
		return models.Message{}, err
	}

	var out models.Message
	err := txn.Run(ctx, s.client, func(ctx context.Context) error {
		b, err := s.GetForMember(ctx, id, sender.UserID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		// Ledger before message: a message is never stored without its
		// unread ticks.
		recipients := conversation.Recipients(b.Members, sender.UserID)
		update := messagestore.LedgerUpdate(recipients, in.Content, now, "last_activity")
		res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "members": sender.UserID}, update)
		if err != nil {
			return fmt.Errorf("update ledger: %w", err)
		}
		if res.MatchedCount == 0 {
			return apperr.Forbidden("not a member of this bastion")
		}
		out, err = s.messages.Insert(ctx, messagestore.Build(id, in, sender, now))
		return err
	})
	if err != nil {
		return models.Message{}, err
	}
	return out, nil
}
