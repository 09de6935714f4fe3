// Package pipeline runs a crawl through a sequence of steps.
//
// A Pipeline executes its steps in order against one CrawlReport: the
// crawl itself, then optional steps such as archiving the run and writing
// the report. Final steps run after the main steps even when the run was
// cancelled, so interrupted crawls are still archived and reported.
package pipeline
