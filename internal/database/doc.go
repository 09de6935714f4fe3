// Package database archives crawl runs in SQLite.
//
// Each saved run keeps its full report as JSON plus normalized pages and
// edges tables, so the link graph of a past run can be queried without
// decoding the report. The archive is never used to resume a crawl.
//
// The driver is modernc.org/sqlite, which needs no cgo.
package database
