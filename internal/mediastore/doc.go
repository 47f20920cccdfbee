// package mediastore is a content index for published media files.
//
// Writers never touch the visible library directly. A writer first inserts a pending record, which owns a
// hidden file under <root>/.pending. Once the bytes are written the record is published: the pending flag
// is cleared and the file is moved to <root>/<relative_path>/<display_name>. Listings show published records
// only, so an interrupted write is never visible.
package mediastore
