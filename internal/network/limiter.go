// Copyright (c) 2026 The alepe-mcp Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package network

import (
	"context"
	"errors"
	"fmt"
	"runtime/trace"
	"time"

	"golang.org/x/time/rate"
)

// ErrInvalidRate is returned by NewLimiter if the rate is not positive.
var ErrInvalidRate = errors.New("rate limit must be a positive number of requests per minute")

// Limiter is the token bucket guarding the outbound request rate.  The bucket
// holds up to perMinute tokens, starts full, and refills continuously at
// perMinute tokens per minute.  It is safe for concurrent use.
type Limiter struct {
	lim       *rate.Limiter
	perMinute int
}

// NewLimiter returns the limiter allowing perMinute requests per minute,
// with bursts of up to perMinute requests.
func NewLimiter(perMinute int) (*Limiter, error) {
	if perMinute <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, perMinute)
	}
	l := &Limiter{
		lim:       rate.NewLimiter(perSecond(perMinute), perMinute),
		perMinute: perMinute,
	}
	return l, nil
}

func perSecond(perMinute int) rate.Limit {
	return rate.Limit(float64(perMinute) / time.Minute.Seconds())
}

// PerMinute returns the configured capacity.
func (l *Limiter) PerMinute() int {
	return l.perMinute
}

// Available returns the number of tokens currently in the bucket.
func (l *Limiter) Available() float64 {
	return l.lim.Tokens()
}

// Acquire takes one token from the bucket, waiting for it if the bucket is
// empty.  The wait does not block other callers.  It returns the time spent
// waiting.  The error is returned only if ctx is cancelled before the token
// becomes available, in which case the token is given back.
func (l *Limiter) Acquire(ctx context.Context) (time.Duration, error) {
	now := time.Now()
	r := l.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return 0, nil
	}

	var err error
	trace.WithRegion(ctx, "Limiter.Acquire.wait", func() {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			r.Cancel()
			err = ctx.Err()
		}
	})
	if err != nil {
		return 0, err
	}
	return delay, nil
}

// reserve takes a token at the time now and returns the time the caller has
// to wait before it may proceed.
func (l *Limiter) reserve(now time.Time) time.Duration {
	return l.lim.ReserveN(now, 1).DelayFrom(now)
}
