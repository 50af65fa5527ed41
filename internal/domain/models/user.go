// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultAvatar is shown for users who have not set avatar_url.
const DefaultAvatar = "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?auto=compress&cs=tinysrgb&w=50&h=50&fit=crop"

// User is a registered learner. Level is always derived from XP and is
// written in the same update as XP.
//
// NOTE:
//   - Guests never have a User record; they exist only as a signed token.
//   - Badges is append-only and keyed by Badge.ID.
type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username          string               `bson:"username" json:"username"`
	UsernameCI        string               `bson:"username_ci" json:"-"` // lowercase, diacritics-stripped
	Email             string               `bson:"email" json:"email"`
	FullName          string               `bson:"full_name" json:"full_name"`
	PasswordHash      string               `bson:"hashed_password" json:"-"`
	AvatarURL         string               `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	XP                int                  `bson:"xp" json:"xp"`
	Level             int                  `bson:"level" json:"level"`
	Badges            []Badge              `bson:"badges" json:"badges"`
	CompletedProjects []primitive.ObjectID `bson:"completed_projects" json:"completed_projects"`
	IsActive          bool                 `bson:"is_active" json:"is_active"`
	IsAdmin           bool                 `bson:"is_admin" json:"is_admin"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Avatar returns the user's avatar or the shared default.
func (u User) Avatar() string {
	if u.AvatarURL == "" {
		return DefaultAvatar
	}
	return u.AvatarURL
}

// Badge is an earned achievement.
type Badge struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	ImageURL    string    `bson:"image_url" json:"image_url"`
	EarnedAt    time.Time `bson:"earned_at" json:"earned_at"`
}

// AuthorSnapshot is a copy of the author's public identity taken when
// content is created. It is never refreshed.
type AuthorSnapshot struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Name   string             `bson:"name" json:"name"`
	Avatar string             `bson:"avatar" json:"avatar"`
	Level  int                `bson:"level" json:"level"`
	Badge  string             `bson:"badge" json:"badge"`
}
