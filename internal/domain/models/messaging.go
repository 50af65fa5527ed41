package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation types.
const (
	ConversationDirect  = "direct"
	ConversationBastion = "bastion"
)

// Message types.
const (
	MessageText = "text"
	MessageCode = "code"
)

// Bastion limits.
const (
	BastionMinMembers     = 5
	BastionMaxMembers     = 15
	DefaultBastionAvatar  = "🏰"
	DefaultBastionMembers = BastionMaxMembers
)

// Conversation is a direct or ad-hoc group thread. UnreadCount is keyed by
// participant hex id; a missing key reads as zero.
type Conversation struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name,omitempty" json:"name,omitempty"`
	Type            string               `bson:"conversation_type" json:"conversation_type"`
	Participants    []primitive.ObjectID `bson:"participants" json:"participants"`
	ParticipantsKey string               `bson:"participants_key,omitempty" json:"-"`
	CreatedBy       primitive.ObjectID   `bson:"created_by" json:"created_by"`
	LastMessage     string               `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastMessageTime *time.Time           `bson:"last_message_time,omitempty" json:"last_message_time,omitempty"`
	UnreadCount     map[string]int       `bson:"unread_count" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Bastion is a named group room with a member cap.
type Bastion struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name"`
	NameCI          string               `bson:"name_ci" json:"-"`
	Description     string               `bson:"description" json:"description"`
	IsPrivate       bool                 `bson:"is_private" json:"is_private"`
	MaxMembers      int                  `bson:"max_members" json:"max_members"`
	Tags            []string             `bson:"tags" json:"tags"`
	Avatar          string               `bson:"avatar" json:"avatar"`
	CreatorID       primitive.ObjectID   `bson:"creator_id" json:"creator_id"`
	Members         []primitive.ObjectID `bson:"members" json:"-"`
	LastMessage     string               `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastMessageTime *time.Time           `bson:"last_message_time,omitempty" json:"last_message_time,omitempty"`
	UnreadCount     map[string]int       `bson:"unread_count" json:"-"`
	LastActivity    time.Time            `bson:"last_activity" json:"last_activity"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Message belongs to a conversation or a bastion; ConversationID holds
// whichever id the message was sent to.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID `bson:"conversation_id" json:"conversation_id"`
	Content        string             `bson:"content" json:"content"`
	MessageType    string             `bson:"message_type" json:"message_type"`
	Language       string             `bson:"language,omitempty" json:"language,omitempty"`
	SenderID       primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	SenderName     string             `bson:"sender_name" json:"sender_name"`
	SenderAvatar   string             `bson:"sender_avatar" json:"sender_avatar"`
	Reactions      []Reaction         `bson:"reactions" json:"reactions"`
	ReactionsRev   int64              `bson:"reactions_rev" json:"-"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EditedAt  *time.Time `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
}

// Reaction is one emoji on a message. Count always equals len(Users).
type Reaction struct {
	Emoji string               `bson:"emoji" json:"emoji"`
	Count int                  `bson:"count" json:"count"`
	Users []primitive.ObjectID `bson:"users" json:"users"`
}
