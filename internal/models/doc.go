// Package models defines domain entities for the trackport cache exporter.
//
// The package contains two categories of types:
//
// 1. Value types passed between components:
//   - [Request] : A track to export (cache identifier plus display metadata)
//   - [Outcome] : The reported result of one export
//
// 2. Persistent Entities: Database-backed models with soft delete support
//   - [CacheSpan] : A contiguous byte range of a cached key, backed by a segment file
//   - [CacheEntry] : Display metadata (title, artist, MIME type) for a cached key
//   - [MediaRecord] : A file in the content index, pending until its writer finishes
//
// All persistent entities embed [Base], which provides the ID, sequence, timestamps and soft delete
// fields required by the [Model] interface.
package models
