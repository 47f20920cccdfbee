// Package tasks runs batch exports of cached tracks with real-time progress reporting.
//
// # Core Operations
//
//  1. [LoadManifest] : Read export requests from a TOML manifest
//     - One [[track]] table per request with id, title, artist and mime keys
//     - Requests without an id are rejected
//
//  2. [Engine.BulkExport] : Export many requests concurrently
//     - Worker pool (default 4, at most 10 workers)
//     - Dispatch paced by a token bucket limiter
//     - Writes a manifest of every outcome through the formatter package
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [Engine] depends only on an [Exporter], so any single-track exporter (usually *exporter.Exporter) can be
// driven in bulk. Exports never fail the batch: each one ends in a [models.Outcome].
package tasks
