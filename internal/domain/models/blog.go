package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlogPost is a long-form article. Likes always equals len(LikedBy).
type BlogPost struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Excerpt       string               `bson:"excerpt" json:"excerpt"`
	Content       string               `bson:"content" json:"content"`
	Category      string               `bson:"category" json:"category"`
	Tags          []string             `bson:"tags" json:"tags"`
	Image         string               `bson:"image,omitempty" json:"image,omitempty"`
	Featured      bool                 `bson:"featured" json:"featured"`
	Published     bool                 `bson:"published" json:"published"`
	Author        AuthorSnapshot       `bson:"author_info" json:"author_info"`
	ReadTime      string               `bson:"read_time" json:"read_time"`
	Likes         int                  `bson:"likes" json:"likes"`
	CommentsCount int                  `bson:"comments_count" json:"comments_count"`
	Views         int                  `bson:"views" json:"views"`
	LikedBy       []primitive.ObjectID `bson:"liked_by" json:"-"`
	BookmarkedBy  []primitive.ObjectID `bson:"bookmarked_by" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Comment is shared by blog posts and community posts; the two live in
// separate collections.
type Comment struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	PostID       primitive.ObjectID   `bson:"post_id" json:"post_id"`
	ParentID     *primitive.ObjectID  `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Content      string               `bson:"content" json:"content"`
	Author       AuthorSnapshot       `bson:"author_info" json:"author_info"`
	Likes        int                  `bson:"likes" json:"likes"`
	LikedBy      []primitive.ObjectID `bson:"liked_by" json:"-"`
	RepliesCount int                  `bson:"replies_count" json:"replies_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
