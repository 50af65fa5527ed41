// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultLimit is used when the request has no usable limit.
	DefaultLimit = 20
	// MaxLimit caps any client-provided limit.
	MaxLimit = 100
)

// Window is an offset page: skip rows, then return at most Limit.
type Window struct {
	Skip  int64
	Limit int64
}

// Parse reads ?skip= and ?limit= from r. Negative skip becomes 0; a limit
// outside 1..max falls back to def (or max when too large).
func Parse(r *http.Request, def, max int) Window {
	q := r.URL.Query()
	w := Window{Skip: 0, Limit: int64(def)}

	if n, err := strconv.ParseInt(q.Get("skip"), 10, 64); err == nil && n > 0 {
		w.Skip = n
	}
	if n, err := strconv.ParseInt(q.Get("limit"), 10, 64); err == nil {
		switch {
		case n < 1:
		case n > int64(max):
			w.Limit = int64(max)
		default:
			w.Limit = n
		}
	}
	return w
}

// Default is Parse with DefaultLimit and MaxLimit.
func Default(r *http.Request) Window {
	return Parse(r, DefaultLimit, MaxLimit)
}

// Apply sets skip and limit on find options.
func (w Window) Apply(opts *options.FindOptions) *options.FindOptions {
	return opts.SetSkip(w.Skip).SetLimit(w.Limit)
}
