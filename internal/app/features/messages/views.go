// internal/app/features/messages/views.go
package messages

import (
	"github.com/dalemusser/codeswitch/internal/domain/engagement"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// conversationView is a conversation as seen by one participant.
type conversationView struct {
	*models.Conversation
	UnreadCount int `json:"unread_count"`
}

func viewConversation(c *models.Conversation, viewer primitive.ObjectID) conversationView {
	return conversationView{Conversation: c, UnreadCount: c.UnreadCount[viewer.Hex()]}
}

func viewConversations(cs []models.Conversation, viewer primitive.ObjectID) []conversationView {
	out := make([]conversationView, 0, len(cs))
	for i := range cs {
		out = append(out, viewConversation(&cs[i], viewer))
	}
	return out
}

// bastionView hides the member list and adds the viewer's state.
type bastionView struct {
	*models.Bastion
	MemberCount int  `json:"member_count"`
	IsMember    bool `json:"is_member"`
	UnreadCount int  `json:"unread_count"`
}

func viewBastion(b *models.Bastion, viewer primitive.ObjectID, signedIn bool) bastionView {
	v := bastionView{Bastion: b, MemberCount: len(b.Members)}
	if signedIn {
		v.IsMember = engagement.Contains(b.Members, viewer)
		v.UnreadCount = b.UnreadCount[viewer.Hex()]
	}
	return v
}

func viewBastions(bs []models.Bastion, viewer primitive.ObjectID, signedIn bool) []bastionView {
	out := make([]bastionView, 0, len(bs))
	for i := range bs {
		out = append(out, viewBastion(&bs[i], viewer, signedIn))
	}
	return out
}
