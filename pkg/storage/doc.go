// Package storage defines the relational persistence layer: a Store
// interface exposing per-entity upsert/delete/get/list plus the
// relationship queries the reconciler and renderer need, an embedded
// DDL schema, a database/sql implementation driven by
// github.com/mattn/go-sqlite3, and an in-memory implementation used by
// tests and by the conformance suite that both must satisfy.
package storage
