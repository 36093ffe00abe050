// Package store defines the relational dataset: its schema, the row types loaded into it,
// idempotent insert statements shared by every backend, read-only query validation and the
// natural-language schema description handed to query consumers.
//
// Backends live in the postgres and sqlite subpackages. Both satisfy Store and build their
// transactions with NewTx over a backend-specific Conn.
package store
