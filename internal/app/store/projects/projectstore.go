package projectstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/store/queries/catalogqueries"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/htmlsanitize"
	"github.com/dalemusser/codeswitch/internal/app/system/inputval"
	"github.com/dalemusser/codeswitch/internal/app/system/limits"
	"github.com/dalemusser/codeswitch/internal/app/system/normalize"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	languages    = []string{models.LanguageHTML, models.LanguageCSS, models.LanguageJavaScript, models.LanguageReact, models.LanguagePython}
	difficulties = []string{models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced}
	types        = []string{models.ProjectGuided, models.ProjectChallenge, models.ProjectCommunity}
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	Language   string
	Difficulty string
	Type       string
	Search     string
}

// List returns published projects, newest first.
func (s *Store) List(ctx context.Context, f ListFilter, w paging.Window) ([]models.Project, error) {
	q := bson.M{"is_published": true}
	if f.Language != "" {
		q["language"] = f.Language
	}
	if f.Difficulty != "" {
		q["difficulty"] = f.Difficulty
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"tags": rx},
		}
	}
	return s.find(ctx, q, w)
}

// ListAll returns every project, published or not. Admin only.
func (s *Store) ListAll(ctx context.Context, w paging.Window) ([]models.Project, error) {
	return s.find(ctx, bson.M{}, w)
}

func (s *Store) find(ctx context.Context, q bson.M, w paging.Window) ([]models.Project, error) {
	opts := w.Apply(options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// NewProject is the creator-supplied part of a project.
type NewProject struct {
	Title              string
	Description        string
	Language           string
	Difficulty         string
	Type               string
	XPReward           int
	EstimatedTime      string
	Tags               []string
	ThumbnailURL       string
	LearningObjectives []string
	Prerequisites      []string
	Steps              []models.ProjectStep
}

// Create validates in and inserts a published project.
func (s *Store) Create(ctx context.Context, creator primitive.ObjectID, in NewProject) (models.Project, error) {
	title := htmlsanitize.Text(in.Title)
	desc := htmlsanitize.Text(in.Description)

	if err := inputval.Length("title", title, limits.ProjectTitleMin, limits.ProjectTitleMax); err != nil {
		return models.Project{}, err
	}
	if err := inputval.Length("description", desc, limits.ProjectDescriptionMin, limits.ProjectDescriptionMax); err != nil {
		return models.Project{}, err
	}
	if err := validateEnums(in.Language, in.Difficulty, in.Type); err != nil {
		return models.Project{}, err
	}
	if err := inputval.Range("xp_reward", in.XPReward, limits.ProjectXPMin, limits.ProjectXPMax); err != nil {
		return models.Project{}, err
	}
	if err := inputval.OptionalURL("thumbnail_url", in.ThumbnailURL); err != nil {
		return models.Project{}, err
	}
	steps, err := cleanSteps(in.Steps)
	if err != nil {
		return models.Project{}, err
	}

	now := time.Now().UTC()
	p := models.Project{
		ID:                 primitive.NewObjectID(),
		Title:              title,
		Description:        desc,
		Language:           in.Language,
		Difficulty:         in.Difficulty,
		Type:               in.Type,
		XPReward:           in.XPReward,
		EstimatedTime:      strings.TrimSpace(in.EstimatedTime),
		Tags:               normalize.Tags(in.Tags),
		ThumbnailURL:       strings.TrimSpace(in.ThumbnailURL),
		LearningObjectives: nonNil(in.LearningObjectives),
		Prerequisites:      nonNil(in.Prerequisites),
		Steps:              steps,
		CreatedBy:          creator,
		IsPublished:        true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// ProjectUpdate holds editable fields; nil means unchanged.
type ProjectUpdate struct {
	Title              *string
	Description        *string
	Language           *string
	Difficulty         *string
	Type               *string
	XPReward           *int
	EstimatedTime      *string
	Tags               []string
	ThumbnailURL       *string
	LearningObjectives []string
	Prerequisites      []string
	Steps              []models.ProjectStep
	IsPublished        *bool
}

// Update applies upd. Only the project's creator may edit it.
func (s *Store) Update(ctx context.Context, id, editor primitive.ObjectID, upd ProjectUpdate) (*models.Project, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.CreatedBy != editor {
		return nil, apperr.Forbidden("only the creator can edit this project")
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		v := htmlsanitize.Text(*upd.Title)
		if err := inputval.Length("title", v, limits.ProjectTitleMin, limits.ProjectTitleMax); err != nil {
			return nil, err
		}
		set["title"] = v
	}
	if upd.Description != nil {
		v := htmlsanitize.Text(*upd.Description)
		if err := inputval.Length("description", v, limits.ProjectDescriptionMin, limits.ProjectDescriptionMax); err != nil {
			return nil, err
		}
		set["description"] = v
	}
	lang, diff, typ := cur.Language, cur.Difficulty, cur.Type
	if upd.Language != nil {
		lang = *upd.Language
		set["language"] = lang
	}
	if upd.Difficulty != nil {
		diff = *upd.Difficulty
		set["difficulty"] = diff
	}
	if upd.Type != nil {
		typ = *upd.Type
		set["type"] = typ
	}
	if err := validateEnums(lang, diff, typ); err != nil {
		return nil, err
	}
	if upd.XPReward != nil {
		if err := inputval.Range("xp_reward", *upd.XPReward, limits.ProjectXPMin, limits.ProjectXPMax); err != nil {
			return nil, err
		}
		set["xp_reward"] = *upd.XPReward
	}
	if upd.EstimatedTime != nil {
		set["estimated_time"] = strings.TrimSpace(*upd.EstimatedTime)
	}
	if upd.Tags != nil {
		set["tags"] = normalize.Tags(upd.Tags)
	}
	if upd.ThumbnailURL != nil {
		if err := inputval.OptionalURL("thumbnail_url", *upd.ThumbnailURL); err != nil {
			return nil, err
		}
		set["thumbnail_url"] = strings.TrimSpace(*upd.ThumbnailURL)
	}
	if upd.LearningObjectives != nil {
		set["learning_objectives"] = upd.LearningObjectives
	}
	if upd.Prerequisites != nil {
		set["prerequisites"] = upd.Prerequisites
	}
	if upd.Steps != nil {
		steps, err := cleanSteps(upd.Steps)
		if err != nil {
			return nil, err
		}
		set["steps"] = steps
	}
	if upd.IsPublished != nil {
		set["is_published"] = *upd.IsPublished
	}

	var p models.Project
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "created_by": editor}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// IncrementCompleted bumps completed_by by one.
func (s *Store) IncrementCompleted(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"completed_by": 1}})
	if err != nil {
		return fmt.Errorf("increment completed_by: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("project not found")
	}
	return nil
}

// Languages lists the languages used by published projects.
func (s *Store) Languages(ctx context.Context) ([]string, error) {
	return catalogqueries.DistinctStrings(ctx, s.c, "language", bson.M{"is_published": true})
}

// Categories lists the project types used by published projects.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	return catalogqueries.DistinctStrings(ctx, s.c, "type", bson.M{"is_published": true})
}

func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return s.c.CountDocuments(ctx, filter)
}

func validateEnums(language, difficulty, typ string) error {
	if err := inputval.OneOf("language", language, languages...); err != nil {
		return err
	}
	if err := inputval.OneOf("difficulty", difficulty, difficulties...); err != nil {
		return err
	}
	return inputval.OneOf("type", typ, types...)
}

// cleanSteps requires at least one step with a unique id and orders them.
func cleanSteps(in []models.ProjectStep) ([]models.ProjectStep, error) {
	if len(in) == 0 {
		return nil, apperr.BadRequest("a project needs at least one step")
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]models.ProjectStep, 0, len(in))
	for i, st := range in {
		st.ID = strings.TrimSpace(st.ID)
		st.Title = htmlsanitize.Text(st.Title)
		if st.ID == "" || st.Title == "" {
			return nil, apperr.BadRequest(fmt.Sprintf("step %d needs an id and a title", i+1))
		}
		if _, dup := seen[st.ID]; dup {
			return nil, apperr.BadRequest("duplicate step id " + st.ID)
		}
		seen[st.ID] = struct{}{}
		if st.Order == 0 {
			st.Order = i + 1
		}
		st.Hints = nonNil(st.Hints)
		out = append(out, st)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("project not found")
	}
	return err
}
