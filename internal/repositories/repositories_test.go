package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "cache_spans")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("NextSequence() = %d, want %d", got, want)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestSpanRepository(t *testing.T) {
	t.Run("Create & ListByKey", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSpanRepository(db)
		for _, s := range []*models.CacheSpan{
			models.NewCacheSpan(0, "song", 10, 5, "/seg/b"),
			models.NewCacheSpan(0, "song", 0, 10, "/seg/a"),
			models.NewCacheSpan(0, "other", 0, 3, "/seg/c"),
		} {
			if err := repo.Create(s); err != nil {
				t.Fatalf("failed to create span: %v", err)
			}
			if s.ID() == "" {
				t.Error("span ID should be set after creation")
			}
		}

		spans, err := repo.ListByKey("song")
		if err != nil {
			t.Fatalf("failed to list spans: %v", err)
		}
		if len(spans) != 2 {
			t.Fatalf("expected 2 spans, got %d", len(spans))
		}
		if spans[0].Position() != 0 || spans[1].Position() != 10 {
			t.Errorf("spans not ordered by position: %d, %d", spans[0].Position(), spans[1].Position())
		}
		if spans[0].SegmentPath() != "/seg/a" {
			t.Errorf("expected /seg/a, got %s", spans[0].SegmentPath())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSpanRepository(db)
		span := models.NewCacheSpan(0, "song", 0, 4, "/seg/a")
		if err := repo.Create(span); err != nil {
			t.Fatalf("failed to create span: %v", err)
		}

		got, err := repo.Get(span.ID())
		if err != nil {
			t.Fatalf("failed to get span: %v", err)
		}
		if got.Length() != 4 || got.Key() != "song" {
			t.Errorf("unexpected span: key=%s length=%d", got.Key(), got.Length())
		}

		if _, err := repo.Get("nonexistent-id"); err == nil {
			t.Error("expected error for nonexistent span")
		}
	})

	t.Run("DuplicatePosition", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSpanRepository(db)
		if err := repo.Create(models.NewCacheSpan(0, "song", 0, 4, "/seg/a")); err != nil {
			t.Fatalf("failed to create span: %v", err)
		}

		err := repo.Create(models.NewCacheSpan(0, "song", 0, 8, "/seg/b"))
		if !errors.Is(err, shared.ErrSpanOverlap) {
			t.Errorf("expected ErrSpanOverlap, got %v", err)
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSpanRepository(db)
		if err := repo.Create(models.NewCacheSpan(0, "song", 0, 0, "/seg/a")); err == nil {
			t.Fatal("expected validation error for empty span")
		}
	})

	t.Run("Keys & DeleteByKey", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSpanRepository(db)
		for _, s := range []*models.CacheSpan{
			models.NewCacheSpan(0, "b", 0, 1, "/seg/1"),
			models.NewCacheSpan(0, "a", 0, 1, "/seg/2"),
			models.NewCacheSpan(0, "a", 1, 1, "/seg/3"),
		} {
			if err := repo.Create(s); err != nil {
				t.Fatalf("failed to create span: %v", err)
			}
		}

		keys, err := repo.Keys()
		if err != nil {
			t.Fatalf("failed to list keys: %v", err)
		}
		if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
			t.Errorf("unexpected keys %v", keys)
		}

		n, err := repo.DeleteByKey("a")
		if err != nil {
			t.Fatalf("failed to delete spans: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 deleted spans, got %d", n)
		}

		remaining, _ := repo.ListByKey("a")
		if len(remaining) != 0 {
			t.Errorf("expected no spans after delete, got %d", len(remaining))
		}

		if err := repo.Create(models.NewCacheSpan(0, "a", 0, 1, "/seg/4")); err != nil {
			t.Errorf("position should be reusable after soft delete: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSpanRepository(db)
		span := models.NewCacheSpan(0, "song", 0, 4, "/seg/a")
		if err := repo.Create(span); err != nil {
			t.Fatalf("failed to create span: %v", err)
		}

		if err := repo.Delete(span.ID()); err != nil {
			t.Fatalf("failed to delete span: %v", err)
		}
		if err := repo.Delete(span.ID()); err == nil {
			t.Error("expected error when deleting already deleted span")
		}
	})
}

func TestEntryRepository(t *testing.T) {
	t.Run("Upsert creates then updates", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEntryRepository(db)
		first := models.NewCacheEntry(0, "vid1", "Song", "Band", "audio/webm")
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("failed to upsert entry: %v", err)
		}

		second := models.NewCacheEntry(0, "vid1", "Song (Live)", "Band", "audio/mp4")
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("failed to upsert entry: %v", err)
		}

		if second.ID() != first.ID() {
			t.Errorf("upsert should keep the existing ID: %s != %s", second.ID(), first.ID())
		}

		got, err := repo.GetByKey("vid1")
		if err != nil {
			t.Fatalf("failed to get entry: %v", err)
		}
		if got.Title() != "Song (Live)" || got.MIMEType() != "audio/mp4" {
			t.Errorf("entry not updated: %s / %s", got.Title(), got.MIMEType())
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected 1 entry, got %d", len(all))
		}
	})

	t.Run("List filters by artist", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEntryRepository(db)
		for _, e := range []*models.CacheEntry{
			models.NewCacheEntry(0, "1", "A", "X", ""),
			models.NewCacheEntry(0, "2", "B", "Y", ""),
			models.NewCacheEntry(0, "3", "C", "X", ""),
		} {
			if err := repo.Create(e); err != nil {
				t.Fatalf("failed to create entry: %v", err)
			}
		}

		filtered, err := repo.List(map[string]any{"artist": "X"})
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		if len(filtered) != 2 {
			t.Errorf("expected 2 entries, got %d", len(filtered))
		}
	})

	t.Run("Delete & NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEntryRepository(db)
		entry := models.NewCacheEntry(0, "vid1", "Song", "Band", "")
		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create entry: %v", err)
		}
		if err := repo.Delete(entry.ID()); err != nil {
			t.Fatalf("failed to delete entry: %v", err)
		}

		if _, err := repo.GetByKey("vid1"); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
		if err := repo.Update(entry); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound on update, got %v", err)
		}
	})
}

func TestRecordRepository(t *testing.T) {
	newRecord := func(name string) *models.MediaRecord {
		r := models.NewMediaRecord(0, name, "Music/trackport/", "audio/mp4")
		r.SetDataPath("/lib/Music/trackport/.pending-" + name)
		return r
	}

	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecordRepository(db)
		record := newRecord("A - B.m4a")
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		got, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if !got.IsPending() {
			t.Error("expected record to be pending")
		}
		if got.RelativePath() != "Music/trackport/" {
			t.Errorf("unexpected relative path %q", got.RelativePath())
		}
	})

	t.Run("Create keeps caller ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecordRepository(db)
		record := newRecord("A - B.m4a")
		record.SetID("fixed-id")
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
		if record.ID() != "fixed-id" {
			t.Errorf("expected fixed-id, got %s", record.ID())
		}
	})

	t.Run("Publish", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecordRepository(db)
		record := newRecord("A - B.m4a")
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		record.SetPending(false)
		record.SetSize(42)
		record.SetDataPath("/lib/Music/trackport/A - B.m4a")
		superseded, err := repo.Publish(record)
		if err != nil {
			t.Fatalf("failed to publish record: %v", err)
		}
		if superseded != 0 {
			t.Errorf("expected nothing superseded, got %d", superseded)
		}

		got, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got.IsPending() || got.Size() != 42 || got.DataPath() != "/lib/Music/trackport/A - B.m4a" {
			t.Errorf("record not updated: pending=%v size=%d path=%s", got.IsPending(), got.Size(), got.DataPath())
		}
	})

	t.Run("Publish supersedes published records only", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecordRepository(db)
		publish := func(r *models.MediaRecord) int {
			t.Helper()
			r.SetPending(false)
			r.SetDataPath("/lib/Music/trackport/A - B.m4a")
			n, err := repo.Publish(r)
			if err != nil {
				t.Fatalf("failed to publish record: %v", err)
			}
			return n
		}

		older, newer, pending, other := newRecord("A - B.m4a"), newRecord("A - B.m4a"), newRecord("A - B.m4a"), newRecord("C - D.m4a")
		for _, r := range []*models.MediaRecord{older, newer, pending, other} {
			if err := repo.Create(r); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}
		other.SetPending(false)
		other.SetDataPath("/lib/Music/trackport/C - D.m4a")
		if _, err := repo.Publish(other); err != nil {
			t.Fatalf("failed to publish record: %v", err)
		}

		if n := publish(older); n != 0 {
			t.Errorf("first publish superseded %d records", n)
		}
		if n := publish(newer); n != 1 {
			t.Errorf("expected 1 superseded record, got %d", n)
		}

		if _, err := repo.Get(older.ID()); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected older record to be deleted, got %v", err)
		}
		for _, r := range []*models.MediaRecord{newer, pending, other} {
			if _, err := repo.Get(r.ID()); err != nil {
				t.Errorf("record %s should remain live: %v", r.DisplayName(), err)
			}
		}
	})

	t.Run("Publish unknown record", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecordRepository(db)
		record := newRecord("A - B.m4a")
		record.SetID("missing")
		if _, err := repo.Publish(record); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("FindByLocation", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecordRepository(db)
		old := newRecord("A - B.m4a")
		if err := repo.Create(old); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
		newer := newRecord("A - B.m4a")
		if err := repo.Create(newer); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		got, err := repo.FindByLocation("Music/trackport", "A - B.m4a")
		if err != nil {
			t.Fatalf("failed to find record: %v", err)
		}
		if got.ID() != newer.ID() {
			t.Errorf("expected newest record %s, got %s", newer.ID(), got.ID())
		}

		if _, err := repo.FindByLocation("Music/trackport/", "missing.m4a"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("List filters", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecordRepository(db)
		published := newRecord("one.m4a")
		published.SetPending(false)
		pending := newRecord("two.m4a")
		elsewhere := models.NewMediaRecord(0, "three.m4a", "Music/other/", "")
		elsewhere.SetDataPath("/lib/Music/other/three.m4a")

		for _, r := range []*models.MediaRecord{published, pending, elsewhere} {
			if err := repo.Create(r); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		visible, err := repo.List(map[string]any{"relative_path": "Music/trackport/", "pending": false})
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}
		if len(visible) != 1 || visible[0].ID() != published.ID() {
			t.Errorf("expected only the published record, got %d", len(visible))
		}

		stale, err := repo.List(map[string]any{"pending": true, "updated_before": time.Now().Add(time.Hour)})
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}
		if len(stale) != 2 {
			t.Errorf("expected 2 pending records, got %d", len(stale))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecordRepository(db)
		record := newRecord("A - B.m4a")
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
		if err := repo.Delete(record.ID()); err != nil {
			t.Fatalf("failed to delete record: %v", err)
		}
		if _, err := repo.Get(record.ID()); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
		if err := repo.Delete(record.ID()); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound on second delete, got %v", err)
		}
	})
}
