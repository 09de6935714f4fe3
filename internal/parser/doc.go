// Package parser extracts links from HTML documents.
//
// Links are returned exactly as written in the href attribute of anchor
// elements, in document order. They are neither resolved, validated nor
// deduplicated; the crawler does that against the page URL.
package parser
