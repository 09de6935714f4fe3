// Package crawler runs a breadth-first crawl bounded to the seed's domain.
//
// A Crawler ties together a frontier.Frontier (pending URLs), a
// store.Store (visit state and discovered links), a fetch.Fetcher and a
// parser.Extractor. Each worker repeats:
//
//	Dequeue -> CheckVisited -> Fetch -> Record -> Extract -> ForEachLink
//
// and exits as soon as it observes an empty frontier. The seed URL is
// processed alone before the workers start, so they do not all race for it.
//
// # Visiting guarantee
//
// The visited check and the visited mark are separate store calls, so two
// workers may fetch the same URL. Pages are visited at least once, not
// exactly once.
//
// # Failures
//
// A page that cannot be fetched is logged at warning level, recorded in
// Result.Failures and skipped. Frontier or store errors abort the run.
package crawler
