package frontier

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Frontier.
// It is safe for concurrent use; its lock is independent of any other
// crawl component so that fetches on different workers overlap.
type Memory struct {
	mu    sync.Mutex
	queue []string
	delay time.Duration
}

// NewMemory creates an empty in-memory frontier.
func NewMemory(opts ...Option) *Memory {
	o := newOptions(opts)
	return &Memory{
		queue: make([]string, 0),
		delay: o.delay,
	}
}

// Enqueue appends url to the queue. It never fails.
func (m *Memory) Enqueue(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, url)
	return nil
}

// Dequeue sleeps for the configured delay and then pops the head.
// The only error it returns is the context's, when cancelled while waiting.
func (m *Memory) Dequeue(ctx context.Context) (string, bool, error) {
	if err := wait(ctx, m.delay); err != nil {
		return "", false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return "", false, nil
	}

	head := m.queue[0]
	m.queue[0] = ""
	m.queue = m.queue[1:]
	return head, true, nil
}
