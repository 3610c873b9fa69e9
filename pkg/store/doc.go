// Package store provides the SQLite-backed relational store holding jobs,
// performance signatures, performance data and alert summaries.
//
// # Drivers
//
// Two database/sql drivers are registered:
//
//   - "sqlite3": github.com/mattn/go-sqlite3 (cgo)
//   - "sqlite": modernc.org/sqlite (pure Go, default)
//
// # Chunked Deletes
//
// Cycling never deletes an unbounded set of rows. DeleteChunk caps every
// statement with a LIMIT applied through an id subquery:
//
//	where := store.NewWhere().
//	    And("push_timestamp <= ?", cutoff.Unix()).
//	    In("signature_id", batch)
//	deleted, err := store.DeleteChunk(ctx, db, store.TableDatum, where, 100)
//
// Deleted counts come straight from the driver. When the driver cannot report
// them, UnknownRowCount (-1) is returned and the caller decides what to do.
//
// # Registry
//
// Read-only lookups used by removal strategies (repository ids by name,
// signature ids by repository or last update) are methods on Store.
//
// # Timestamps
//
// All timestamps are stored as INTEGER unix seconds so comparisons behave the
// same under both drivers.
package store
