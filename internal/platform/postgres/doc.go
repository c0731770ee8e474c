// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx stdlib driver. Schema migrations are embedded and
// applied with goose.
package postgres
