package tasks

import (
	"fmt"

	"github.com/desertthunder/trackport/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	QueueTracks Phase = iota
	ExportTracks
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case QueueTracks:
		return "queue_tracks"
	case ExportTracks:
		return "export_tracks"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func queueUpdate(step, total int, req models.Request) ProgressUpdate {
	return ProgressUpdate{
		Phase:   QueueTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Queued: %s", step, total, req),
	}
}

// outcomeUpdate carries the outcome as Data so UIs can render it without parsing the message.
func outcomeUpdate(step, total int, o models.Outcome) ProgressUpdate {
	var msg string
	switch o.Status {
	case models.StatusExported:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, o.DisplayName)
	case models.StatusNoData:
		msg = fmt.Sprintf("[%d/%d] - %s (nothing cached)", step, total, o.DisplayName)
	default:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, o.DisplayName, o.Err)
	}

	return ProgressUpdate{
		Phase:   ExportTracks,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    o,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}
