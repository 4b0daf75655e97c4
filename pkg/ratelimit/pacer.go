// Package ratelimit paces successive catalog requests made by one sheet
// dump so that consecutive pages are at least a fixed delay apart.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultPageDelay is the minimum pause between the end of one page request
// and the start of the next one of the same sheet.
const DefaultPageDelay = 120 * time.Millisecond

// Pacer enforces a pause between requests. Wait blocks until the delay has
// passed since the last Done, or since the previous Wait when Done was not
// called. The first Wait returns immediately. A Pacer is meant to be owned
// by a single dump; sheets dumped in parallel each get their own.
type Pacer struct {
	limit   rate.Limit
	limiter *rate.Limiter
}

// NewPacer creates a Pacer. A delay <= 0 disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Pacer{limit: limit, limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request may be issued or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer wait: %w", err)
	}
	return nil
}

// Done marks the end of a request. The next Wait blocks for the full delay
// counted from now, however long the request took.
func (p *Pacer) Done() {
	if p.limit == rate.Inf {
		return
	}
	limiter := rate.NewLimiter(p.limit, 1)
	limiter.ReserveN(time.Now(), 1)
	p.limiter = limiter
}
