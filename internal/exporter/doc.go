// package exporter copies cached audio into the user's music folder.
//
// An export runs start to finish without retries:
//
//	resolve extension → sanitize name → check cache → (no data: stop) → open target → copy → commit or abort
//
// The destination is a [WriteTarget] chosen once when the exporter is built. The scoped target writes through
// the content index ([mediastore]) as a pending record that is published on success; the direct target writes
// the file in place. Either way a failed write leaves nothing visible behind.
//
// Every export ends in a [models.Outcome] handed to a [Reporter]. Export never returns an error and never lets a
// panic from a collaborator escape.
package exporter
