// Package trending ranks community posts by recent activity.
package trending

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	Window    = 24 * time.Hour
	Threshold = 10.0
	TopN      = 10
)

// Candidate is the slice of a post the scorer needs.
type Candidate struct {
	ID           primitive.ObjectID `bson:"_id"`
	Likes        int                `bson:"likes"`
	Replies      int                `bson:"replies"`
	Views        int                `bson:"views"`
	LastActivity time.Time          `bson:"last_activity"`
}

// Score is likes + 2*replies + views/10.
func Score(c Candidate) float64 {
	return float64(c.Likes) + 2*float64(c.Replies) + float64(c.Views)/10
}

// Select returns the ids that should be flagged trending at now: posts
// active within Window scoring at least Threshold, best first, at most TopN.
// Ties go to the most recently active post.
func Select(candidates []Candidate, now time.Time) []primitive.ObjectID {
	cutoff := now.Add(-Window)

	type scored struct {
		c     Candidate
		score float64
	}
	eligible := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.LastActivity.Before(cutoff) {
			continue
		}
		s := Score(c)
		if s < Threshold {
			continue
		}
		eligible = append(eligible, scored{c: c, score: s})
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].score != eligible[j].score {
			return eligible[i].score > eligible[j].score
		}
		return eligible[i].c.LastActivity.After(eligible[j].c.LastActivity)
	})

	if len(eligible) > TopN {
		eligible = eligible[:TopN]
	}
	ids := make([]primitive.ObjectID, len(eligible))
	for i, e := range eligible {
		ids[i] = e.c.ID
	}
	return ids
}
