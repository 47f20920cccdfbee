package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

var _ list.Item = entryItem{}

// entryItem wraps [models.CacheEntry] to implement [list.Item].
type entryItem struct {
	entry *models.CacheEntry
}

func (i entryItem) FilterValue() string {
	return strings.Join([]string{i.entry.Artist(), i.entry.Title(), i.entry.Key()}, " ")
}

func (i entryItem) Title() string {
	if i.entry.Title() == "" && i.entry.Artist() == "" {
		return i.entry.Key()
	}
	return fmt.Sprintf("%s - %s", i.entry.Artist(), i.entry.Title())
}

func (i entryItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.entry.Key(), shared.FormatBytes(i.entry.Length))
	if i.entry.MIMEType() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.entry.MIMEType())
	}
	if i.entry.Length == 0 {
		desc += " • nothing cached"
	}
	return desc
}
