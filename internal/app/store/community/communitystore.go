package communitystore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	commentstore "github.com/dalemusser/codeswitch/internal/app/store/comments"
	"github.com/dalemusser/codeswitch/internal/app/store/queries/catalogqueries"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/htmlsanitize"
	"github.com/dalemusser/codeswitch/internal/app/system/inputval"
	"github.com/dalemusser/codeswitch/internal/app/system/limits"
	"github.com/dalemusser/codeswitch/internal/app/system/normalize"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/txn"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c        *mongo.Collection
	client   *mongo.Client
	comments *commentstore.Store
	now      func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("community_posts"),
		client:   db.Client(),
		comments: commentstore.New(db, commentstore.CommunityCollection),
		now:      time.Now,
	}
}

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	PostType       string
	Category       string
	Search         string
	TrendingOnly   bool
	UnansweredOnly bool
	SolvedOnly     bool
}

// List returns posts with pinned posts first, then by recent activity.
func (s *Store) List(ctx context.Context, f ListFilter, w paging.Window) ([]models.CommunityPost, error) {
	q := bson.M{}
	if f.PostType != "" {
		q["post_type"] = f.PostType
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.TrendingOnly {
		q["is_trending"] = true
	}
	if f.UnansweredOnly {
		q["replies"] = 0
	}
	if f.SolvedOnly {
		q["is_solved"] = true
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"content": rx},
			bson.M{"tags": rx},
		}
	}

	opts := w.Apply(options.Find().SetSort(bson.D{
		{Key: "is_pinned", Value: -1},
		{Key: "last_activity", Value: -1},
	}))
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find community posts: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.CommunityPost{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode community posts: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.CommunityPost, error) {
	var p models.CommunityPost
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// View increments the view counter and returns the post.
func (s *Store) View(ctx context.Context, id primitive.ObjectID) (*models.CommunityPost, error) {
	var p models.CommunityPost
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// NewPost is the author-supplied part of a community post.
type NewPost struct {
	Title    string
	Content  string
	PostType string
	Category string
	Tags     []string
	Image    string
}

func (s *Store) Create(ctx context.Context, in NewPost, author models.AuthorSnapshot) (models.CommunityPost, error) {
	title := htmlsanitize.Text(in.Title)
	content := htmlsanitize.Sanitize(in.Content)
	category := strings.TrimSpace(in.Category)

	if err := inputval.Length("title", title, limits.CommunityTitleMin, limits.CommunityTitleMax); err != nil {
		return models.CommunityPost{}, err
	}
	if err := inputval.Length("content", content, limits.CommunityContentMin, limits.CommunityContentMax); err != nil {
		return models.CommunityPost{}, err
	}
	if !models.IsValidPostType(in.PostType) {
		return models.CommunityPost{}, apperr.BadRequest("post_type must be question, showcase, discussion or challenge")
	}
	if category == "" {
		return models.CommunityPost{}, apperr.BadRequest("category is required")
	}
	if err := inputval.OptionalURL("image", in.Image); err != nil {
		return models.CommunityPost{}, err
	}

	now := s.now().UTC()
	p := models.CommunityPost{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Content:      content,
		PostType:     in.PostType,
		Category:     category,
		Tags:         normalize.Tags(in.Tags),
		Image:        strings.TrimSpace(in.Image),
		Author:       author,
		LikedBy:      []primitive.ObjectID{},
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.CommunityPost{}, fmt.Errorf("insert community post: %w", err)
	}
	return p, nil
}

// PostUpdate holds editable fields; nil means unchanged.
type PostUpdate struct {
	Title    *string
	Content  *string
	Category *string
	Tags     []string
	Image    *string
}

// Update applies upd to a post authored by editor.
func (s *Store) Update(ctx context.Context, id, editor primitive.ObjectID, upd PostUpdate) (*models.CommunityPost, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Author.UserID != editor {
		return nil, apperr.Forbidden("only the author can edit this post")
	}

	set := bson.M{"updated_at": s.now().UTC()}
	if upd.Title != nil {
		v := htmlsanitize.Text(*upd.Title)
		if err := inputval.Length("title", v, limits.CommunityTitleMin, limits.CommunityTitleMax); err != nil {
			return nil, err
		}
		set["title"] = v
	}
	if upd.Content != nil {
		v := htmlsanitize.Sanitize(*upd.Content)
		if err := inputval.Length("content", v, limits.CommunityContentMin, limits.CommunityContentMax); err != nil {
			return nil, err
		}
		set["content"] = v
	}
	if upd.Category != nil {
		v := strings.TrimSpace(*upd.Category)
		if v == "" {
			return nil, apperr.BadRequest("category is required")
		}
		set["category"] = v
	}
	if upd.Tags != nil {
		set["tags"] = normalize.Tags(upd.Tags)
	}
	if upd.Image != nil {
		if err := inputval.OptionalURL("image", *upd.Image); err != nil {
			return nil, err
		}
		set["image"] = strings.TrimSpace(*upd.Image)
	}

	var p models.CommunityPost
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "author_info.user_id": editor}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// MarkSolved flags a question as solved. Only the author may do this, and
// a solved post stays solved; marking it again is a no-op.
func (s *Store) MarkSolved(ctx context.Context, id, user primitive.ObjectID) (*models.CommunityPost, error) {
	now := s.now().UTC()
	filter := bson.M{
		"_id":                 id,
		"author_info.user_id": user,
		"post_type":           models.PostTypeQuestion,
		"is_solved":           bson.M{"$ne": true},
	}
	update := bson.M{"$set": bson.M{"is_solved": true, "solved_at": now, "last_activity": now, "updated_at": now}}

	var p models.CommunityPost
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mark solved: %w", err)
	}

	// the conditional update missed; work out why
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case cur.Author.UserID != user:
		return nil, apperr.Forbidden("only the author can mark this post solved")
	case cur.PostType != models.PostTypeQuestion:
		return nil, apperr.BadRequest("only questions can be marked solved")
	}
	return cur, nil
}

// CreateComment adds a reply, bumping the post's replies counter and
// last_activity in the same transaction. Counters are written only after
// the post and parent checks pass and the comment is stored, so a rejected
// reply leaves nothing behind even without transactions.
func (s *Store) CreateComment(ctx context.Context, postID primitive.ObjectID, parentID *primitive.ObjectID, content string, author models.AuthorSnapshot) (models.Comment, error) {
	content = htmlsanitize.Text(content)
	if err := inputval.Length("content", content, 1, limits.CommunityCommentMax); err != nil {
		return models.Comment{}, err
	}

	var created models.Comment
	err := txn.Run(ctx, s.client, func(ctx context.Context) error {
		now := s.now().UTC()
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": postID}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("find post: %w", err)
		}
		if n == 0 {
			return apperr.NotFound("post not found")
		}
		if parentID != nil {
			if err := s.comments.CheckParent(ctx, postID, *parentID); err != nil {
				return err
			}
		}
		created, err = s.comments.Insert(ctx, models.Comment{
			PostID:    postID,
			ParentID:  parentID,
			Content:   content,
			Author:    author,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		if parentID != nil {
			if err := s.comments.BumpReplies(ctx, *parentID); err != nil {
				return err
			}
		}
		if _, err := s.c.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
			"$inc": bson.M{"replies": 1},
			"$set": bson.M{"last_activity": now},
		}); err != nil {
			return fmt.Errorf("bump replies: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Comment{}, err
	}
	return created, nil
}

// ListComments returns top-level comments, newest first.
func (s *Store) ListComments(ctx context.Context, postID primitive.ObjectID, w paging.Window) ([]models.Comment, error) {
	return s.comments.ListTop(ctx, postID, w)
}

// ListReplies returns the replies under a comment, oldest first.
func (s *Store) ListReplies(ctx context.Context, commentID primitive.ObjectID, w paging.Window) ([]models.Comment, error) {
	if _, err := s.comments.Get(ctx, commentID); err != nil {
		return nil, err
	}
	return s.comments.Replies(ctx, commentID, w)
}

// Categories lists the distinct categories in use, sorted.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	return catalogqueries.DistinctStrings(ctx, s.c, "category", nil)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("post not found")
	}
	return err
}
