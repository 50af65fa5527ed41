package blogstore

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
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("blog_posts"),
		client:   db.Client(),
		comments: commentstore.New(db, commentstore.BlogCollection),
	}
}

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	Category     string
	Search       string
	FeaturedOnly bool
}

// List returns published posts, newest first.
func (s *Store) List(ctx context.Context, f ListFilter, w paging.Window) ([]models.BlogPost, error) {
	q := bson.M{"published": true}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.FeaturedOnly {
		q["featured"] = true
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"excerpt": rx},
			bson.M{"content": rx},
			bson.M{"tags": rx},
		}
	}

	opts := w.Apply(options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find blog posts: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.BlogPost{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode blog posts: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.BlogPost, error) {
	var p models.BlogPost
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// View increments the view counter and returns the post.
func (s *Store) View(ctx context.Context, id primitive.ObjectID) (*models.BlogPost, error) {
	var p models.BlogPost
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// NewPost is the author-supplied part of a blog post.
type NewPost struct {
	Title     string
	Excerpt   string
	Content   string
	Category  string
	Tags      []string
	Image     string
	Featured  bool
	Published *bool
}

// Create validates in, sanitizes the body, and inserts the post under
// author's snapshot.
func (s *Store) Create(ctx context.Context, in NewPost, author models.AuthorSnapshot) (models.BlogPost, error) {
	title := htmlsanitize.Text(in.Title)
	excerpt := htmlsanitize.Text(in.Excerpt)
	content := htmlsanitize.Sanitize(in.Content)
	category := strings.TrimSpace(in.Category)

	if err := inputval.Length("title", title, limits.BlogTitleMin, limits.BlogTitleMax); err != nil {
		return models.BlogPost{}, err
	}
	if err := inputval.Length("excerpt", excerpt, limits.BlogExcerptMin, limits.BlogExcerptMax); err != nil {
		return models.BlogPost{}, err
	}
	if err := inputval.Length("content", content, limits.BlogContentMin, 0); err != nil {
		return models.BlogPost{}, err
	}
	if category == "" {
		return models.BlogPost{}, apperr.BadRequest("category is required")
	}
	if err := inputval.OptionalURL("image", in.Image); err != nil {
		return models.BlogPost{}, err
	}

	published := true
	if in.Published != nil {
		published = *in.Published
	}
	now := time.Now().UTC()
	p := models.BlogPost{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Excerpt:      excerpt,
		Content:      content,
		Category:     category,
		Tags:         normalize.Tags(in.Tags),
		Image:        strings.TrimSpace(in.Image),
		Featured:     in.Featured,
		Published:    published,
		Author:       author,
		ReadTime:     ReadTime(content),
		LikedBy:      []primitive.ObjectID{},
		BookmarkedBy: []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.BlogPost{}, fmt.Errorf("insert blog post: %w", err)
	}
	return p, nil
}

// PostUpdate holds editable fields; nil means unchanged.
type PostUpdate struct {
	Title     *string
	Excerpt   *string
	Content   *string
	Category  *string
	Tags      []string
	Image     *string
	Featured  *bool
	Published *bool
}

// Update applies upd to a post authored by editor.
func (s *Store) Update(ctx context.Context, id, editor primitive.ObjectID, upd PostUpdate) (*models.BlogPost, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Author.UserID != editor {
		return nil, apperr.Forbidden("only the author can edit this post")
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		v := htmlsanitize.Text(*upd.Title)
		if err := inputval.Length("title", v, limits.BlogTitleMin, limits.BlogTitleMax); err != nil {
			return nil, err
		}
		set["title"] = v
	}
	if upd.Excerpt != nil {
		v := htmlsanitize.Text(*upd.Excerpt)
		if err := inputval.Length("excerpt", v, limits.BlogExcerptMin, limits.BlogExcerptMax); err != nil {
			return nil, err
		}
		set["excerpt"] = v
	}
	if upd.Content != nil {
		v := htmlsanitize.Sanitize(*upd.Content)
		if err := inputval.Length("content", v, limits.BlogContentMin, 0); err != nil {
			return nil, err
		}
		set["content"] = v
		set["read_time"] = ReadTime(v)
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
	if upd.Featured != nil {
		set["featured"] = *upd.Featured
	}
	if upd.Published != nil {
		set["published"] = *upd.Published
	}

	var p models.BlogPost
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "author_info.user_id": editor}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// CreateComment adds a comment (or reply) to a post and bumps the post's
// comments_count in the same transaction. The counter moves only once the
// comment is stored.
func (s *Store) CreateComment(ctx context.Context, postID primitive.ObjectID, parentID *primitive.ObjectID, content string, author models.AuthorSnapshot) (models.Comment, error) {
	content = htmlsanitize.Text(content)
	if err := inputval.Length("content", content, 1, limits.BlogCommentMax); err != nil {
		return models.Comment{}, err
	}

	var created models.Comment
	err := txn.Run(ctx, s.client, func(ctx context.Context) error {
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
			PostID:   postID,
			ParentID: parentID,
			Content:  content,
			Author:   author,
		})
		if err != nil {
			return err
		}
		if parentID != nil {
			if err := s.comments.BumpReplies(ctx, *parentID); err != nil {
				return err
			}
		}
		if _, err := s.c.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$inc": bson.M{"comments_count": 1}}); err != nil {
			return fmt.Errorf("bump comments_count: %w", err)
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

// Categories lists the distinct categories of published posts, sorted.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	return catalogqueries.DistinctStrings(ctx, s.c, "category", bson.M{"published": true})
}

// Count returns the number of posts matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return s.c.CountDocuments(ctx, filter)
}

// ReadTime estimates reading time from the visible words of content.
func ReadTime(content string) string {
	words := len(strings.Fields(htmlsanitize.Text(content)))
	mins := words / limits.ReadingWordsPerMinute
	if mins < 1 {
		mins = 1
	}
	return fmt.Sprintf("%d min", mins)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("post not found")
	}
	return err
}
