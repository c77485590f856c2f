// Package store defines the maintlog record store: a versioned set of named
// collections holding JSON documents, plus a meta key/value collection.
//
// The store is schema-agnostic. It requires only that a record is a JSON
// object carrying a non-empty string key field (id, or key for meta). Typed
// validation happens before Upsert, in the repositories layer.
//
// Backends live in sub-packages: sqlite (local, embedded) and postgres
// (hosted, owner-scoped). Both satisfy Store and share the collection
// registry, key extraction and error types declared here.
//
// Every operation runs in its own transaction against exactly one
// collection. Absence is never an error: GetOne returns nil and Delete of a
// missing id succeeds. The store does not log or retry.
package store
