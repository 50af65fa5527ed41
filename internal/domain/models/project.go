package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project languages.
const (
	LanguageHTML       = "html"
	LanguageCSS        = "css"
	LanguageJavaScript = "javascript"
	LanguageReact      = "react"
	LanguagePython     = "python"
)

// Project difficulties.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Project types.
const (
	ProjectGuided    = "guided"
	ProjectChallenge = "challenge"
	ProjectCommunity = "community"
)

// FirstProjectBadge is awarded on a user's first completed project.
var FirstProjectBadge = Badge{
	ID:          "first_project",
	Name:        "First Project",
	Description: "Completed a first project",
}

// Project is a guided exercise or challenge with ordered steps.
type Project struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title              string             `bson:"title" json:"title"`
	Description        string             `bson:"description" json:"description"`
	Language           string             `bson:"language" json:"language"`     // html | css | javascript | react | python
	Difficulty         string             `bson:"difficulty" json:"difficulty"` // beginner | intermediate | advanced
	Type               string             `bson:"type" json:"type"`             // guided | challenge | community
	XPReward           int                `bson:"xp_reward" json:"xp_reward"`
	EstimatedTime      string             `bson:"estimated_time" json:"estimated_time"`
	Tags               []string           `bson:"tags" json:"tags"`
	ThumbnailURL       string             `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
	LearningObjectives []string           `bson:"learning_objectives" json:"learning_objectives"`
	Prerequisites      []string           `bson:"prerequisites" json:"prerequisites"`
	Steps              []ProjectStep      `bson:"steps" json:"steps"`
	CompletedBy        int                `bson:"completed_by" json:"completed_by"`
	CreatedBy          primitive.ObjectID `bson:"created_by" json:"created_by"`
	IsPublished        bool               `bson:"is_published" json:"is_published"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type ProjectStep struct {
	ID             string   `bson:"id" json:"id"`
	Title          string   `bson:"title" json:"title"`
	Description    string   `bson:"description" json:"description"`
	Instructions   string   `bson:"instructions" json:"instructions"`
	StarterCode    string   `bson:"starter_code" json:"starter_code"`
	ExpectedOutput string   `bson:"expected_output,omitempty" json:"expected_output,omitempty"`
	Hints          []string `bson:"hints" json:"hints"`
	Order          int      `bson:"order" json:"order"`
}

// Progress is one user's state on one project. (user_id, project_id) is unique.
type Progress struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	ProjectID     primitive.ObjectID `bson:"project_id" json:"project_id"`
	CurrentStep   int                `bson:"current_step" json:"current_step"`
	StepsProgress []StepProgress     `bson:"steps_progress" json:"steps_progress"`
	IsCompleted   bool               `bson:"is_completed" json:"is_completed"`

	StartedAt   time.Time  `bson:"started_at" json:"started_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

type StepProgress struct {
	StepID      string     `bson:"step_id" json:"step_id"`
	Completed   bool       `bson:"completed" json:"completed"`
	Code        string     `bson:"code,omitempty" json:"code,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}
