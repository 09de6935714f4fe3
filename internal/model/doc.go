// Package model defines the data structures shared between the crawler,
// the report writers and the run archive.
//
//   - CrawlReport: everything known about one crawl run
//   - PageRecord: one entry of the visited store
//   - Failure: a page that could not be fetched
//   - Summary: aggregate counts for human-readable output
//
// Models carry no behavior beyond bookkeeping and serialize to JSON as-is.
package model
