// Package ingest loads a collected artifact tree into the relational store.
//
// Every match folder is loaded inside its own transaction. All inserts are insert-if-absent
// and keyed by ids derived from folder and file names, so loading the same tree twice adds
// no rows and an interrupted load can simply be re-run.
package ingest
