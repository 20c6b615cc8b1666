// Package sqlite provides a SQLite-backed implementation of the
// driven.ResultStore port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. Evaluation
// artifacts are stored as an evaluations row keyed (model_id, file_id,
// run) plus one matches row per EditMatch, so aggregate metrics can
// always be recomputed from the raw match lists.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory. Each migration is a pair of .up.sql and
// .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.proofbench/data/results.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
