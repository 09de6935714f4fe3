// Package main provides the entry point for the sitecrawler CLI.
//
// sitecrawler crawls one site breadth-first, following only links that
// stay within the seed URL's domain, and reports the pages it found and
// the links between them.
//
// Usage:
//
//	sitecrawler crawl <seed-url>
//	sitecrawler history [run-id]
//
// See --help for all available options.
package main

// main is the entry point for sitecrawler.
func main() {
	Execute()
}
