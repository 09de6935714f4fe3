// Package frontier provides the crawl work queue.
//
// A Frontier is an unbounded FIFO of URLs waiting to be fetched. It accepts
// duplicates; callers deduplicate against the visited store before
// enqueueing. An optional politeness delay is applied before every
// dequeue, not only the first.
//
// Dequeue reporting "empty" is a point-in-time observation. Another worker
// may enqueue new work immediately afterwards.
//
// Two implementations are provided:
//   - Memory: an in-process slice guarded by its own mutex
//   - Redis: a Redis list, for sharing one frontier between processes
package frontier
