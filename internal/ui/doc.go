// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for exporting cached tracks:
//  1. [EntryListView] : Browse cached tracks with their cached size
//  2. [ConfirmView] : Confirm the export and see the resulting file name
//  3. [ExportView] : Spinner while the export runs
//  4. [ResultView] : Display the outcome, optionally reveal the exported file
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern. Exports run inside a [tea.Cmd]
// so the exporter never touches model state; its outcome comes back as a message.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, o, r, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
