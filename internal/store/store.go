package store

import (
	"context"
	"slices"
)

// Entry is the state recorded for a single URL.
type Entry struct {
	// Visited is true once the page has been fetched successfully.
	Visited bool `json:"visited"`

	// Outbound lists every link found on the page, in discovery order.
	Outbound []string `json:"outbound"`
}

// clone returns a deep copy so callers cannot mutate stored state.
func (e Entry) clone() Entry {
	return Entry{
		Visited:  e.Visited,
		Outbound: slices.Clone(e.Outbound),
	}
}

// Store is the visited store of a crawl.
type Store interface {
	// Add ensures key has an entry (unvisited if new) and appends any
	// discovered URLs to its outbound log.
	Add(ctx context.Context, key string, discovered ...string) error

	// MarkVisited sets Visited on key. Unknown keys are ignored.
	MarkVisited(ctx context.Context, key string) error

	// HasVisited reports whether key exists and has been visited.
	HasVisited(ctx context.Context, key string) (bool, error)

	// Exists reports whether key has an entry.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns a copy of the entry for key.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Snapshot returns a copy of every entry.
	Snapshot(ctx context.Context) (map[string]Entry, error)
}
