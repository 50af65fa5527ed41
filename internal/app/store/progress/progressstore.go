package progressstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	projectstore "github.com/dalemusser/codeswitch/internal/app/store/projects"
	userstore "github.com/dalemusser/codeswitch/internal/app/store/users"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/txn"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errExists = apperr.BadRequest("progress already exists for this project")

type Store struct {
	c        *mongo.Collection
	client   *mongo.Client
	projects *projectstore.Store
	users    *userstore.Store
	now      func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("progress"),
		client:   db.Client(),
		projects: projectstore.New(db),
		users:    userstore.New(db),
		now:      time.Now,
	}
}

// ListForUser returns every progress record of user, most recently
// updated first.
func (s *Store) ListForUser(ctx context.Context, user primitive.ObjectID) ([]models.Progress, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": user},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find progress: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Progress{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, user, project primitive.ObjectID) (*models.Progress, error) {
	var p models.Progress
	err := s.c.FindOne(ctx, bson.M{"user_id": user, "project_id": project}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("progress not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// NewProgress starts tracking a project. Completion is only reached
// through Update.
type NewProgress struct {
	ProjectID     primitive.ObjectID
	CurrentStep   int
	StepsProgress []models.StepProgress
}

// Create inserts the single progress record for (user, project).
func (s *Store) Create(ctx context.Context, user primitive.ObjectID, in NewProgress) (models.Progress, error) {
	project, err := s.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return models.Progress{}, err
	}
	now := s.now().UTC()
	steps, err := checkSteps(project, in.CurrentStep, in.StepsProgress, now)
	if err != nil {
		return models.Progress{}, err
	}

	// the unique index closes the race; this check gives a clean error
	// when indexes have not been ensured
	n, err := s.c.CountDocuments(ctx, bson.M{"user_id": user, "project_id": in.ProjectID})
	if err != nil {
		return models.Progress{}, fmt.Errorf("check progress: %w", err)
	}
	if n > 0 {
		return models.Progress{}, errExists
	}

	p := models.Progress{
		ID:            primitive.NewObjectID(),
		UserID:        user,
		ProjectID:     in.ProjectID,
		CurrentStep:   in.CurrentStep,
		StepsProgress: steps,
		StartedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Progress{}, errExists
		}
		return models.Progress{}, fmt.Errorf("insert progress: %w", err)
	}
	return p, nil
}

// ProgressUpdate holds the fields a learner may change; nil means
// unchanged.
type ProgressUpdate struct {
	CurrentStep   *int
	StepsProgress []models.StepProgress
	IsCompleted   *bool
}

// UpdateResult reports what an Update did. XPAwarded and User are set only
// on the update that first completed the project.
type UpdateResult struct {
	Progress  *models.Progress
	XPAwarded int
	User      *models.User
}

// Update applies upd to user's progress on project. The first transition
// to completed stamps completed_at and pays out the project's XP reward;
// completed_at is never cleared, so the reward is paid at most once.
func (s *Store) Update(ctx context.Context, user, projectID primitive.ObjectID, upd ProgressUpdate) (UpdateResult, error) {
	cur, err := s.Get(ctx, user, projectID)
	if err != nil {
		return UpdateResult{}, err
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return UpdateResult{}, err
	}

	now := s.now().UTC()
	step := cur.CurrentStep
	if upd.CurrentStep != nil {
		step = *upd.CurrentStep
	}
	set := bson.M{"updated_at": now, "current_step": step}
	if upd.StepsProgress != nil {
		steps, err := checkSteps(project, step, upd.StepsProgress, now)
		if err != nil {
			return UpdateResult{}, err
		}
		set["steps_progress"] = steps
	} else if _, err := checkSteps(project, step, nil, now); err != nil {
		return UpdateResult{}, err
	}
	if upd.IsCompleted != nil {
		set["is_completed"] = *upd.IsCompleted
	}

	var res UpdateResult
	err = txn.Run(ctx, s.client, func(ctx context.Context) error {
		res = UpdateResult{}
		filter := bson.M{"_id": cur.ID}
		if _, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		if upd.IsCompleted != nil && *upd.IsCompleted {
			first, err := s.c.UpdateOne(ctx,
				bson.M{"_id": cur.ID, "completed_at": nil},
				bson.M{"$set": bson.M{"completed_at": now}})
			if err != nil {
				return fmt.Errorf("stamp completion: %w", err)
			}
			if first.ModifiedCount == 1 {
				u, err := s.reward(ctx, user, project)
				if err != nil {
					return err
				}
				res.XPAwarded = project.XPReward
				res.User = u
			}
		}

		var p models.Progress
		if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
			return fmt.Errorf("reload progress: %w", err)
		}
		res.Progress = &p
		return nil
	})
	if err != nil {
		return UpdateResult{}, err
	}
	return res, nil
}

func (s *Store) reward(ctx context.Context, user primitive.ObjectID, project *models.Project) (*models.User, error) {
	if err := s.projects.IncrementCompleted(ctx, project.ID); err != nil {
		return nil, err
	}
	if err := s.users.AddCompletedProject(ctx, user, project.ID); err != nil {
		return nil, fmt.Errorf("record completed project: %w", err)
	}
	if _, err := s.users.AwardBadge(ctx, user, models.FirstProjectBadge); err != nil {
		return nil, fmt.Errorf("award badge: %w", err)
	}
	return s.users.AddXP(ctx, user, project.XPReward)
}

// CountCompleted counts finished projects across all users.
func (s *Store) CountCompleted(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"is_completed": true})
}

// checkSteps validates current against the project's steps and stamps
// completed_at on newly completed step entries.
func checkSteps(project *models.Project, current int, steps []models.StepProgress, now time.Time) ([]models.StepProgress, error) {
	if current < 0 || current > len(project.Steps) {
		return nil, apperr.BadRequest(fmt.Sprintf("current_step must be between 0 and %d", len(project.Steps)))
	}
	known := make(map[string]struct{}, len(project.Steps))
	for _, st := range project.Steps {
		known[st.ID] = struct{}{}
	}

	out := make([]models.StepProgress, 0, len(steps))
	for _, sp := range steps {
		if _, ok := known[sp.StepID]; !ok {
			return nil, apperr.BadRequest("unknown step id " + sp.StepID)
		}
		switch {
		case sp.Completed && sp.CompletedAt == nil:
			t := now
			sp.CompletedAt = &t
		case !sp.Completed:
			sp.CompletedAt = nil
		}
		out = append(out, sp)
	}
	return out, nil
}
