// Package timeouts provides the deadlines handlers put on database calls.
//
//   - Ping: health checks
//   - Short: single-document reads and toggles
//   - Medium: list queries and simple writes
//   - Long: multi-collection writes and stats
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var (
	mu     sync.RWMutex
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
)

func Ping() time.Duration   { return get(&ping) }
func Short() time.Duration  { return get(&short) }
func Medium() time.Duration { return get(&medium) }
func Long() time.Duration   { return get(&long) }

func get(d *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *d
}

// Configure overrides the defaults at startup. Zero values keep the
// current setting.
func Configure(s, m, l time.Duration, logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if s > 0 {
		short = s
	}
	if m > 0 {
		medium = m
	}
	if l > 0 {
		long = l
	}
	logger.Info("handler timeouts configured",
		zap.Duration("short", short),
		zap.Duration("medium", medium),
		zap.Duration("long", long))
}

// WithTimeout is context.WithTimeout with one of the getters above.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}
