package userstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/inputval"
	"github.com/dalemusser/codeswitch/internal/app/system/limits"
	"github.com/dalemusser/codeswitch/internal/app/system/normalize"
	"github.com/dalemusser/codeswitch/internal/domain/leveling"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	errUsernameTaken = apperr.BadRequest("username already taken")
	errEmailTaken    = apperr.BadRequest("email already registered")
)

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("user not found")
	}
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByLogin finds a user by email or (case-insensitive) username.
func (s *Store) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperr.NotFound("user not found")
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"email": normalize.Email(login)},
		bson.M{"username_ci": normalize.UsernameKey(login)},
	}}
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
// PasswordHash must already be set. XP, level and badges start fresh
// regardless of what the caller passed.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Username = normalize.Username(u.Username)
	u.UsernameCI = normalize.UsernameKey(u.Username)
	u.Email = normalize.Email(u.Email)
	u.FullName = normalize.Name(u.FullName)

	if err := inputval.Length("username", u.Username, limits.UsernameMin, limits.UsernameMax); err != nil {
		return models.User{}, err
	}
	if err := inputval.Length("full_name", u.FullName, limits.FullNameMin, limits.FullNameMax); err != nil {
		return models.User{}, err
	}
	if !inputval.IsValidEmail(u.Email) {
		return models.User{}, apperr.BadRequest("invalid email")
	}
	if u.PasswordHash == "" {
		return models.User{}, apperr.BadRequest("password is required")
	}
	if err := inputval.OptionalURL("avatar_url", u.AvatarURL); err != nil {
		return models.User{}, err
	}

	u.XP = 0
	u.Level = leveling.Level(0)
	u.Badges = []models.Badge{}
	u.CompletedProjects = []primitive.ObjectID{}
	u.IsActive = true
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			if strings.Contains(err.Error(), "uniq_users_username_ci") {
				return models.User{}, errUsernameTaken
			}
			return models.User{}, errEmailTaken
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// AddXP adds amount (possibly negative) to the user's XP, clamping at zero,
// and recomputes the level in the same document write.
func (s *Store) AddXP(ctx context.Context, id primitive.ObjectID, amount int) (*models.User, error) {
	newXP := bson.D{{Key: "$max", Value: bson.A{0, bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$xp", 0}}}, amount}}}}}}
	level := bson.D{{Key: "$toInt", Value: bson.D{{Key: "$max", Value: bson.A{
		1,
		bson.D{{Key: "$add", Value: bson.A{
			bson.D{{Key: "$floor", Value: bson.D{{Key: "$sqrt", Value: bson.D{{Key: "$divide", Value: bson.A{"$xp", leveling.XPPerLevelUnit}}}}}}},
			1,
		}}},
	}}}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "xp", Value: newXP}}}},
		{{Key: "$set", Value: bson.D{{Key: "level", Value: level}, {Key: "updated_at", Value: time.Now().UTC()}}}},
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ProfileUpdate holds the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FullName  *string
	AvatarURL *string
}

// UpdateProfile applies upd and returns the refreshed user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.FullName != nil {
		name := normalize.Name(*upd.FullName)
		if err := inputval.Length("full_name", name, limits.FullNameMin, limits.FullNameMax); err != nil {
			return nil, err
		}
		set["full_name"] = name
	}
	if upd.AvatarURL != nil {
		if err := inputval.OptionalURL("avatar_url", *upd.AvatarURL); err != nil {
			return nil, err
		}
		set["avatar_url"] = strings.TrimSpace(*upd.AvatarURL)
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// List returns users newest first.
func (s *Store) List(ctx context.Context, skip, limit int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountSince counts users created at or after t.
func (s *Store) CountSince(ctx context.Context, t time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": t}})
}

// ToggleAdmin flips target's admin flag. An actor can never change their
// own flag.
func (s *Store) ToggleAdmin(ctx context.Context, actor, target primitive.ObjectID) (*models.User, error) {
	if actor == target {
		return nil, apperr.BadRequest("cannot change your own admin status")
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "is_admin", Value: bson.D{{Key: "$not", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$is_admin", false}}}}}}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	}
	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": target}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// PromoteByEmail sets is_admin on the user with email. It reports whether
// a user matched.
func (s *Store) PromoteByEmail(ctx context.Context, email string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{"is_admin": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// AwardBadge appends b unless a badge with the same id was already earned.
// It reports whether the badge was newly awarded.
func (s *Store) AwardBadge(ctx context.Context, id primitive.ObjectID, b models.Badge) (bool, error) {
	if b.EarnedAt.IsZero() {
		b.EarnedAt = time.Now().UTC()
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "badges.id": bson.M{"$ne": b.ID}},
		bson.M{"$push": bson.M{"badges": b}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// AddCompletedProject records projectID in the user's completed set.
func (s *Store) AddCompletedProject(ctx context.Context, id, projectID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"completed_projects": projectID}})
	return err
}

// Snapshot returns the frozen public identity stamped onto new content.
func (s *Store) Snapshot(ctx context.Context, id primitive.ObjectID) (models.AuthorSnapshot, error) {
	proj := options.FindOne().SetProjection(bson.M{"full_name": 1, "avatar_url": 1, "level": 1})
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&u); err != nil {
		return models.AuthorSnapshot{}, notFound(err)
	}
	level := u.Level
	if level < 1 {
		level = 1
	}
	return models.AuthorSnapshot{
		UserID: u.ID,
		Name:   u.FullName,
		Avatar: u.Avatar(),
		Level:  level,
		Badge:  leveling.Badge(level),
	}, nil
}
