// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database.
//
// Tests opt in with the integration build tag and the
// EXPLORER_TEST_DATABASE_URL environment variable:
//
//	EXPLORER_TEST_DATABASE_URL=postgres://... go test -tags=integration ./...
//
// Each test runs inside a transaction that is rolled back on cleanup, so
// tests can share one database without seeing each other's rows.
package testdb
