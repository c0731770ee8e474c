// Package task runs background work on a bounded in-memory queue drained by a
// fixed pool of workers. Tasks are idempotent and re-derived from the
// database on every sweep, so nothing is persisted here.
package task
