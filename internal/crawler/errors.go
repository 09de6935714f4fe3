package crawler

import "errors"

var (
	// ErrNoSeed is returned by New when Config.Seed is empty.
	ErrNoSeed = errors.New("crawler: no seed URL")

	// ErrInvalidWorkers is returned by New when Config.Workers is below one.
	ErrInvalidWorkers = errors.New("crawler: worker count must be at least 1")

	// ErrNoFrontier is returned by New when Config.Frontier is nil.
	ErrNoFrontier = errors.New("crawler: no frontier")

	// ErrNoStore is returned by New when Config.Store is nil.
	ErrNoStore = errors.New("crawler: no visited store")

	// ErrNoFetcher is returned by New when Config.Fetcher is nil.
	ErrNoFetcher = errors.New("crawler: no fetcher")
)
