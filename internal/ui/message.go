package ui

import (
	"github.com/desertthunder/trackport/internal/models"
)

// entriesLoadedMsg carries the cache listing.
type entriesLoadedMsg struct {
	entries []*models.CacheEntry
	err     error
}

// outcomeMsg carries the result of an export.
type outcomeMsg models.Outcome

// revealedMsg reports the result of opening the file manager.
type revealedMsg struct {
	err error
}
