// Package store defines the dispatcher-owned persistent slot store. All
// durable state lives here as a sparse mapping from slot index to raw value;
// modules only ever see it through a per-call staged view. Two backends are
// provided: a snapshot-file backend (temp file + rename for atomic commits,
// one snapshot per dispatcher under StoragePath) and a SQLite backend where a
// commit is a single transaction. Higher layers pick the backend via the
// StorageDriver config field and never touch the filesystem or database
// directly.
package store
