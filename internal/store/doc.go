// Package store records crawl visit state and the discovered-link graph.
//
// Every URL ever added has exactly one Entry. Entries are never removed and
// Visited only moves from false to true. Outbound is an append log of every
// link discovered on the page, not a set: a destination linked twice is
// recorded twice.
//
// Absent keys are not errors. MarkVisited on an unknown key is a no-op and
// lookups of unknown keys report false. The in-memory implementation never
// fails; the Redis implementation only fails on backend errors.
package store
