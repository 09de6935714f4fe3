// Package fetch retrieves page bodies over HTTP.
//
// The crawler only needs the text of a page, so a Fetcher returns the
// decoded body as a string. Any failure (transport error, non-2xx status,
// unreadable body) is reported as *Error so the crawler can log the URL
// and move on.
package fetch
