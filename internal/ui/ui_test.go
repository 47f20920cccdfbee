package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/trackport/internal/models"
)

type fakeCatalog struct {
	entries []*models.CacheEntry
	err     error
}

func (f *fakeCatalog) Entries(context.Context) ([]*models.CacheEntry, error) {
	return f.entries, f.err
}

type fakeExporter struct {
	requests []models.Request
	status   models.Status
}

func (f *fakeExporter) Export(_ context.Context, req models.Request) models.Outcome {
	f.requests = append(f.requests, req)
	o := models.Outcome{Request: req, Status: f.status, DisplayName: req.Artist + " - " + req.Title + ".m4a"}
	if f.status == models.StatusExported {
		o.Location = "/music/trackport/" + o.DisplayName
		o.Bytes = 2048
	}
	return o
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, status models.Status) (*Model, *fakeExporter) {
	t.Helper()

	entry := models.NewCacheEntry(1, "vid1", "Song", "Band", "audio/webm")
	entry.Length = 4096
	exp := &fakeExporter{status: status}
	m := NewModel(context.Background(), &fakeCatalog{entries: []*models.CacheEntry{entry}}, exp, "direct")

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(m.Init()())
	return m, exp
}

func TestModelFlow(t *testing.T) {
	t.Run("loads entries", func(t *testing.T) {
		m, _ := newTestModel(t, models.StatusExported)
		if m.view != EntryListView {
			t.Errorf("view = %d, want EntryListView", m.view)
		}
		if len(m.entryList.Items()) != 1 {
			t.Errorf("expected 1 item, got %d", len(m.entryList.Items()))
		}
	})

	t.Run("export success", func(t *testing.T) {
		m, exp := newTestModel(t, models.StatusExported)

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != ConfirmView {
			t.Fatalf("view = %d, want ConfirmView", m.view)
		}
		if !strings.Contains(m.View(), "Band - Song.webm") {
			t.Errorf("confirm view should show the file name:\n%s", m.View())
		}

		_, cmd := m.Update(runes("y"))
		if m.view != ExportView {
			t.Fatalf("view = %d, want ExportView", m.view)
		}
		if cmd == nil {
			t.Fatal("expected export command")
		}

		msg := m.runExport(m.selected.Request())()
		m.Update(msg)

		if m.view != ResultView {
			t.Fatalf("view = %d, want ResultView", m.view)
		}
		if len(exp.requests) != 1 || exp.requests[0].Identifier != "vid1" {
			t.Errorf("unexpected export requests %+v", exp.requests)
		}
		if !strings.Contains(m.View(), "Export Complete") {
			t.Errorf("result view missing success title:\n%s", m.View())
		}
	})

	t.Run("export no data", func(t *testing.T) {
		m, _ := newTestModel(t, models.StatusNoData)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(runes("y"))
		m.Update(m.runExport(m.selected.Request())())

		if !strings.Contains(m.View(), "Nothing to export") {
			t.Errorf("result view should report no data:\n%s", m.View())
		}
	})

	t.Run("confirm declined", func(t *testing.T) {
		m, exp := newTestModel(t, models.StatusExported)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(runes("n"))

		if m.view != EntryListView || m.selected != nil {
			t.Errorf("declining should return to the list")
		}
		if len(exp.requests) != 0 {
			t.Error("no export should run")
		}
	})

	t.Run("reveal exported file", func(t *testing.T) {
		m, _ := newTestModel(t, models.StatusExported)
		var revealed string
		m.reveal = func(path string) error {
			revealed = path
			return nil
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(runes("y"))
		m.Update(m.runExport(m.selected.Request())())

		_, cmd := m.Update(runes("o"))
		if cmd == nil {
			t.Fatal("expected reveal command")
		}
		m.Update(cmd())

		if revealed != "/music/trackport" {
			t.Errorf("revealed %q, want /music/trackport", revealed)
		}
		if !strings.Contains(m.View(), "Opened folder") {
			t.Errorf("missing notice:\n%s", m.View())
		}
	})

	t.Run("back to list reloads", func(t *testing.T) {
		m, _ := newTestModel(t, models.StatusFailed)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(runes("y"))
		m.Update(m.runExport(m.selected.Request())())

		_, cmd := m.Update(runes("r"))
		if cmd == nil {
			t.Fatal("expected reload command")
		}
		m.Update(cmd())
		if m.view != EntryListView || m.outcome != nil {
			t.Errorf("expected a fresh list view")
		}
	})

	t.Run("catalog error", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeCatalog{err: errors.New("db locked")}, &fakeExporter{}, "direct")
		m.Update(m.Init()())

		if !strings.Contains(m.View(), "db locked") {
			t.Errorf("error view missing cause:\n%s", m.View())
		}
	})

	t.Run("quit", func(t *testing.T) {
		m, _ := newTestModel(t, models.StatusExported)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestEntryItem(t *testing.T) {
	described := models.NewCacheEntry(1, "vid1", "Song", "Band", "audio/webm")
	described.Length = 1024
	bare := models.NewCacheEntry(2, "vid2", "", "", "")

	if got := (entryItem{entry: described}).Title(); got != "Band - Song" {
		t.Errorf("Title() = %q", got)
	}
	if got := (entryItem{entry: bare}).Title(); got != "vid2" {
		t.Errorf("Title() = %q, want key for bare entries", got)
	}
	if got := (entryItem{entry: described}).Description(); got != "vid1 • 1.0 KiB • audio/webm" {
		t.Errorf("Description() = %q", got)
	}
	if got := (entryItem{entry: bare}).Description(); !strings.HasSuffix(got, "nothing cached") {
		t.Errorf("Description() = %q", got)
	}
}
