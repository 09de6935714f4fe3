package model

import (
	"cmp"
	"slices"
	"time"
)

// Summary condenses a CrawlReport for human-readable output.
type Summary struct {
	Seed     string        `json:"seed"`
	Scope    string        `json:"scope"`
	Duration time.Duration `json:"duration"`

	// Pages is the number of store entries.
	Pages int `json:"pages"`

	// Visited is the number of entries fetched successfully.
	Visited int `json:"visited"`

	// Unvisited entries were discovered but never fetched: out of scope,
	// filtered, failed or cut off by cancellation.
	Unvisited int `json:"unvisited"`

	// Links is the total number of recorded outbound links.
	Links int `json:"links"`

	Failures int  `json:"failures"`
	Canceled bool `json:"canceled"`

	// TopLinked are the most linked-to URLs, most links first.
	TopLinked []LinkCount `json:"top_linked,omitempty"`
}

// LinkCount is a URL with the number of links pointing at it.
type LinkCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// maxTopLinked bounds Summary.TopLinked.
const maxTopLinked = 10

// NewSummary builds a summary of r.
func NewSummary(r *CrawlReport) *Summary {
	s := &Summary{
		Seed:     r.Seed,
		Scope:    r.Scope(),
		Duration: r.Duration(),
		Pages:    len(r.Pages),
		Failures: len(r.Failures),
		Canceled: r.Canceled,
	}

	inbound := make(map[string]int)
	for _, p := range r.Pages {
		if p.Visited {
			s.Visited++
		}
		s.Links += len(p.Outbound)
		for _, link := range p.Outbound {
			inbound[link]++
		}
	}
	s.Unvisited = s.Pages - s.Visited

	for url, n := range inbound {
		s.TopLinked = append(s.TopLinked, LinkCount{URL: url, Count: n})
	}
	slices.SortFunc(s.TopLinked, func(a, b LinkCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.URL, b.URL)
	})
	if len(s.TopLinked) > maxTopLinked {
		s.TopLinked = s.TopLinked[:maxTopLinked]
	}
	return s
}
