package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/trackport/internal/exporter"
	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
	"github.com/desertthunder/trackport/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	EntryListView ViewState = iota
	ConfirmView
	ExportView
	ResultView
)

// Catalog lists what the cache holds.
type Catalog interface {
	Entries(ctx context.Context) ([]*models.CacheEntry, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	catalog   Catalog
	exporter  tasks.Exporter
	target    string
	width     int
	height    int
	entryList list.Model
	selected  *models.CacheEntry
	spinner   spinner.Model
	outcome   *models.Outcome
	notice    string
	err       error
	help      help.Model
	keys      keyMap

	// reveal opens the file manager; replaced in tests
	reveal func(path string) error
}

// NewModel creates a new TUI model. target names the write target shown on the confirm screen.
func NewModel(ctx context.Context, catalog Catalog, exp tasks.Exporter, target string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:       ctx,
		view:      EntryListView,
		catalog:   catalog,
		exporter:  exp,
		target:    target,
		entryList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		spinner:   sp,
		help:      help.New(),
		keys:      newKeyMap(),
		reveal:    shared.RevealPath,
	}
}

// Init initializes the TUI by loading the cache listing.
func (m *Model) Init() tea.Cmd {
	return m.loadEntries()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.entryList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case EntryListView:
			return m.handleEntryListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ExportView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case entriesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.entries))
		for i, e := range msg.entries {
			items[i] = entryItem{entry: e}
		}
		m.entryList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.entryList.Title = "Cached Tracks"
		m.entryList.SetSize(m.width-4, m.height-8)
		m.view = EntryListView
		return m, nil

	case outcomeMsg:
		o := models.Outcome(msg)
		m.outcome = &o
		m.notice = ""
		m.view = ResultView
		return m, nil

	case revealedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Could not open folder: %v", msg.err)
		} else {
			m.notice = "Opened folder"
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != ExportView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.view == EntryListView {
		var cmd tea.Cmd
		m.entryList, cmd = m.entryList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case EntryListView:
		return m.renderEntryList()
	case ConfirmView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleEntryListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.entryList.FilterState() == list.Filtering

	switch {
	case !filtering && key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case m.err != nil:
		return m, nil
	case !filtering && key.Matches(msg, m.keys.enter):
		if item, ok := m.entryList.SelectedItem().(entryItem); ok {
			m.selected = item.entry
			m.view = ConfirmView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.entryList, cmd = m.entryList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = ExportView
		return m, tea.Batch(m.spinner.Tick, m.runExport(m.selected.Request()))
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = EntryListView
		m.selected = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reveal):
		if m.outcome != nil && m.outcome.OK() {
			return m, m.revealOutcome(m.outcome.Location)
		}
	case key.Matches(msg, m.keys.restart), key.Matches(msg, m.keys.back):
		m.selected = nil
		m.outcome = nil
		m.notice = ""
		return m, m.loadEntries()
	}
	return m, nil
}

func (m *Model) loadEntries() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.catalog.Entries(m.ctx)
		return entriesLoadedMsg{entries: entries, err: err}
	}
}

// runExport runs the export off the update loop and hands back its outcome.
func (m *Model) runExport(req models.Request) tea.Cmd {
	ctx, exp := m.ctx, m.exporter
	return func() tea.Msg {
		return outcomeMsg(exp.Export(ctx, req))
	}
}

func (m *Model) revealOutcome(location string) tea.Cmd {
	reveal := m.reveal
	return func() tea.Msg {
		return revealedMsg{err: reveal(filepath.Dir(location))}
	}
}

func (m *Model) renderEntryList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	if len(m.entryList.Items()) == 0 {
		return fmt.Sprintf("%s\n\nNothing cached yet. Add tracks with `trackport cache put`.\n\n%s",
			styles.title.Render("Cached Tracks"), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.entryList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	req := m.selected.Request()
	title := styles.title.Render(fmt.Sprintf("Export '%s'?", entryItem{entry: m.selected}.Title()))
	info := fmt.Sprintf("\nFile: %s\nCached: %s\nTarget: %s\n",
		exporter.FileName(req),
		shared.FormatBytes(m.selected.Length),
		m.target,
	)

	var warning string
	if m.selected.Length == 0 {
		warning = styles.warn.Render("Nothing is cached for this track yet.") + "\n"
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n%s", title, info, warning, helpView)
}

func (m *Model) renderExport() string {
	name := exporter.FileName(m.selected.Request())
	return fmt.Sprintf("%s\n\n%s Exporting %s...", styles.title.Render("Exporting"), m.spinner.View(), name)
}

func (m *Model) renderResult() string {
	if m.outcome == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	var title string
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	switch m.outcome.Status {
	case models.StatusExported:
		title = styles.ok.Render("✓ Export Complete!")
		helpKeys = append([]key.Binding{m.keys.reveal}, helpKeys...)
	case models.StatusNoData:
		title = styles.warn.Render("Nothing to export")
	default:
		title = styles.err.Render("✗ Export Failed")
	}

	info := "\n" + m.outcome.Message()
	if m.outcome.OK() {
		info += fmt.Sprintf("\nSize: %s in %s", shared.FormatBytes(m.outcome.Bytes), m.outcome.Duration.Round(time.Millisecond))
	}
	if m.notice != "" {
		info += "\n\n" + styles.help.Render(m.notice)
	}

	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
