// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is a named unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// TrendingRecomputer is the part of the community store the trending job
// drives.
type TrendingRecomputer interface {
	RecomputeTrending(ctx context.Context, now time.Time) (int, error)
}

// TrendingJob re-flags trending community posts.
func TrendingJob(posts TrendingRecomputer, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "community-trending",
		Interval: interval,
		Timeout:  30 * time.Second,
		Run: func(ctx context.Context) error {
			n, err := posts.RecomputeTrending(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			logger.Debug("trending recomputed", zap.Int("trending", n))
			return nil
		},
	}
}
