// Package rate paces outbound Gmail API calls.
package rate

import (
	"context"
	"time"
)

// Pacer spaces calls so a large backlog of threads does not trip
// Gmail's per-user quota. The pipeline is single-threaded, so a plain
// last-call timestamp is enough.
type Pacer struct {
	interval time.Duration
	last     time.Time
}

// NewPacer returns a pacer allowing up to perSecond calls per second.
func NewPacer(perSecond int) *Pacer {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Pacer{interval: time.Second / time.Duration(perSecond)}
}

// Wait blocks until the next call is due or the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	now := time.Now()
	if wait := p.interval - now.Sub(p.last); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	p.last = time.Now()
	return nil
}
