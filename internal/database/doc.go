// Package database stores the crawl history in SQLite.
//
// Every run is recorded with its entry URL, timing and counts, together with
// one row per page result: outcome, output file, title, error and the SHA3
// hash of the converted Markdown. The hashes let a later run report which
// pages changed since the previous crawl of the same site.
//
// The database is a single file (modernc.org/sqlite, no cgo) under the XDG
// data directory by default.
package database
