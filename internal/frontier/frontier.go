package frontier

import (
	"context"
	"time"
)

// Frontier is the pending-work queue of a crawl.
type Frontier interface {
	// Enqueue appends url to the tail of the queue.
	Enqueue(ctx context.Context, url string) error

	// Dequeue waits for the politeness delay, then removes and returns the
	// head of the queue. ok is false when the queue was empty at that moment.
	Dequeue(ctx context.Context) (url string, ok bool, err error)
}

// Option configures a Frontier implementation.
type Option func(*options)

type options struct {
	delay time.Duration
}

// WithDelay sets the politeness delay applied before every dequeue.
// Zero or negative disables the delay.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}
		o.delay = d
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
