package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community post types.
const (
	PostTypeQuestion   = "question"
	PostTypeShowcase   = "showcase"
	PostTypeDiscussion = "discussion"
	PostTypeChallenge  = "challenge"
)

// IsValidPostType reports whether t is one of the known post types.
func IsValidPostType(t string) bool {
	switch t {
	case PostTypeQuestion, PostTypeShowcase, PostTypeDiscussion, PostTypeChallenge:
		return true
	}
	return false
}

// CommunityPost is a forum thread. IsTrending is owned by the trending job;
// IsSolved only ever moves from false to true.
type CommunityPost struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title        string               `bson:"title" json:"title"`
	Content      string               `bson:"content" json:"content"`
	PostType     string               `bson:"post_type" json:"post_type"`
	Category     string               `bson:"category" json:"category"`
	Tags         []string             `bson:"tags" json:"tags"`
	Image        string               `bson:"image,omitempty" json:"image,omitempty"`
	Author       AuthorSnapshot       `bson:"author_info" json:"author_info"`
	Likes        int                  `bson:"likes" json:"likes"`
	Replies      int                  `bson:"replies" json:"replies"`
	Views        int                  `bson:"views" json:"views"`
	LikedBy      []primitive.ObjectID `bson:"liked_by" json:"-"`
	IsPinned     bool                 `bson:"is_pinned" json:"is_pinned"`
	IsSolved     bool                 `bson:"is_solved" json:"is_solved"`
	IsTrending   bool                 `bson:"is_trending" json:"is_trending"`
	SolvedAt     *time.Time           `bson:"solved_at,omitempty" json:"solved_at,omitempty"`
	LastActivity time.Time            `bson:"last_activity" json:"last_activity"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
