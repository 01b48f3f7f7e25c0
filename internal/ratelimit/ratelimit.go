// Package ratelimit counts requests per client in fixed windows.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds for the
// Retry-After header. It never returns less than 1.
func (d Decision) RetryAfterSeconds() int {
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	return max(secs, 1)
}
