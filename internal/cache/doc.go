// package cache stores previously downloaded audio bytes as spans of segment files.
//
// Each cache key owns a set of non-overlapping spans. Span metadata lives in SQLite (cache_spans) and the bytes
// live in segment files under the cache directory. Readers see only the contiguous run of bytes starting at
// position 0; a gap ends what is readable even when later spans exist.
//
// Display metadata for a key (title, artist, MIME type) is kept alongside in cache_entries so exports can be
// requested by key alone.
package cache
