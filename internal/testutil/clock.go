package testutil

import (
	"context"
	"sync"
	"time"

	"shopify-catalog-sync/internal/infra/clock"
)

// Recorder is a clock.Sleeper that records requested delays and returns at
// once, so cooldowns and polls never wait in tests.
type Recorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

var _ clock.Sleeper = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Sleep fails like the real sleeper when ctx is already done.
func (r *Recorder) Sleep(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.sleeps = append(r.sleeps, delay)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Sleeps() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.sleeps))
	copy(out, r.sleeps)
	return out
}

func (r *Recorder) Total() time.Duration {
	var total time.Duration
	for _, d := range r.Sleeps() {
		total += d
	}
	return total
}
