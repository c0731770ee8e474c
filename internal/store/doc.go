// Package store defines the persistence interfaces the services depend on,
// the shared store errors, and the transaction helper. Implementations live in
// internal/platform/postgres.
package store
