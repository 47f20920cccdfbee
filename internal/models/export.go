package models

import (
	"fmt"
	"time"
)

// Request identifies a cached track and the metadata used to name its exported file.
type Request struct {
	Identifier string `json:"id" toml:"id"`
	Title      string `json:"title" toml:"title"`
	Artist     string `json:"artist" toml:"artist"`
	MIMEType   string `json:"mime" toml:"mime"`
}

func (r Request) Validate() error {
	if r.Identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	return nil
}

// String renders the request as "artist - title [id]" for logs and progress messages.
func (r Request) String() string {
	return fmt.Sprintf("%s - %s [%s]", r.Artist, r.Title, r.Identifier)
}

// Status is the terminal state of an export.
type Status int

const (
	StatusFailed Status = iota
	StatusNoData
	StatusExported
)

func (s Status) String() string {
	switch s {
	case StatusExported:
		return "exported"
	case StatusNoData:
		return "no_data"
	case StatusFailed:
		return "failed"
	default:
		return ""
	}
}

// Outcome is what an export reports to its caller.
type Outcome struct {
	Request     Request
	Status      Status
	Target      string        // Write target name (scoped or direct)
	DisplayName string        // Sanitized file name including extension
	Location    string        // Where the file ended up, empty unless exported
	Bytes       int64         // Bytes written
	Duration    time.Duration // Time spent in the export
	Err         error         // Cause of a failed export
}

// OK reports whether the export produced a file.
func (o Outcome) OK() bool { return o.Status == StatusExported }

// Message is the user-facing notice for the outcome.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusExported:
		return fmt.Sprintf("Saved %s to %s", o.DisplayName, o.Location)
	case StatusNoData:
		return fmt.Sprintf("Nothing cached for %s yet", o.DisplayName)
	default:
		return fmt.Sprintf("Export of %s failed: %v", o.DisplayName, o.Err)
	}
}
