// Package repositories implements SQLite persistence for cache spans, cache entries and media records.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [SpanRepository] : Byte ranges of cached keys, ordered by position
//   - [EntryRepository] : Title/artist/MIME metadata per cached key
//   - [RecordRepository] : Content index records with a pending flag
//
// Sequence numbers provide stable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
