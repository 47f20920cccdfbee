// package formatter renders batch export manifests (JSON, CSV, plain text) and plain-text listings of cache
// entries and library records
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

// Supported manifest formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatText = "txt"
)

// ManifestEntry is one exported (or skipped, or failed) track in a manifest
type ManifestEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
	Location    string `json:"location,omitempty"`
	Bytes       int64  `json:"bytes"`
	DurationMS  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

// Manifest summarizes a batch export
type Manifest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Target      string          `json:"target"`
	Total       int             `json:"total"`
	Exported    int             `json:"exported"`
	NoData      int             `json:"no_data"`
	Failed      int             `json:"failed"`
	Skipped     int             `json:"skipped"`
	Entries     []ManifestEntry `json:"entries"`
}

// NewManifest builds a manifest from outcomes. Requests in total without an outcome count as skipped.
func NewManifest(outcomes []models.Outcome, total int, target string, at time.Time) *Manifest {
	m := &Manifest{
		GeneratedAt: at,
		Target:      target,
		Total:       total,
		Entries:     make([]ManifestEntry, 0, len(outcomes)),
	}

	for _, o := range outcomes {
		switch o.Status {
		case models.StatusExported:
			m.Exported++
		case models.StatusNoData:
			m.NoData++
		default:
			m.Failed++
		}

		entry := ManifestEntry{
			ID:          o.Request.Identifier,
			Title:       o.Request.Title,
			Artist:      o.Request.Artist,
			DisplayName: o.DisplayName,
			Status:      o.Status.String(),
			Location:    o.Location,
			Bytes:       o.Bytes,
			DurationMS:  o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}
		m.Entries = append(m.Entries, entry)
	}

	if skipped := total - len(outcomes); skipped > 0 {
		m.Skipped = skipped
	}
	return m
}

// ManifestToJSON renders the manifest as indented JSON
func ManifestToJSON(m *Manifest) ([]byte, error) {
	return shared.MarshalJSON(m, true)
}

// ManifestToCSV renders the manifest entries with columns: ID, Artist, Title, File, Status, Bytes, Location, Error
func ManifestToCSV(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Artist", "Title", "File", "Status", "Bytes", "Location", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range m.Entries {
		record := []string{
			e.ID,
			e.Artist,
			e.Title,
			e.DisplayName,
			e.Status,
			strconv.FormatInt(e.Bytes, 10),
			e.Location,
			e.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ManifestToText renders the manifest as a plain text report
func ManifestToText(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Export: %s\n", m.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Target: %s\n", m.Target)
	fmt.Fprintf(&buf, "Tracks: %d (exported %d, no data %d, failed %d", m.Total, m.Exported, m.NoData, m.Failed)
	if m.Skipped > 0 {
		fmt.Fprintf(&buf, ", skipped %d", m.Skipped)
	}
	buf.WriteString(")\n\n")

	for i, e := range m.Entries {
		switch e.Status {
		case models.StatusExported.String():
			fmt.Fprintf(&buf, "%d. ✓ %s (%s) → %s\n", i+1, e.DisplayName, shared.FormatBytes(e.Bytes), e.Location)
		case models.StatusNoData.String():
			fmt.Fprintf(&buf, "%d. - %s: nothing cached\n", i+1, e.DisplayName)
		default:
			fmt.Fprintf(&buf, "%d. ✗ %s: %s\n", i+1, e.DisplayName, e.Error)
		}
	}

	return buf.Bytes(), nil
}

// WriteManifest renders m in format and writes it to base plus the format's extension.
//
// Unknown formats fall back to JSON. Returns the written path.
func WriteManifest(m *Manifest, format, base string) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)

	switch format {
	case FormatCSV:
		data, err = ManifestToCSV(m)
		ext = ".csv"
	case FormatText:
		data, err = ManifestToText(m)
		ext = ".txt"
	default:
		data, err = ManifestToJSON(m)
		ext = ".json"
	}
	if err != nil {
		return "", fmt.Errorf("failed to render manifest: %w", err)
	}

	path := strings.TrimSuffix(base, filepath.Ext(base)) + ext
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// EntriesToText renders cache entries as an aligned table: key, artist, title, type, cached size
func EntriesToText(entries []*models.CacheEntry) []byte {
	var buf bytes.Buffer
	if len(entries) == 0 {
		buf.WriteString("Cache is empty\n")
		return buf.Bytes()
	}

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tARTIST\tTITLE\tTYPE\tCACHED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Key(), orDash(e.Artist()), orDash(e.Title()), orDash(e.MIMEType()), shared.FormatBytes(e.Length))
	}
	w.Flush()

	return buf.Bytes()
}

// RecordsToText renders published library records as an aligned table: location, type, size, published time
func RecordsToText(records []*models.MediaRecord) []byte {
	var buf bytes.Buffer
	if len(records) == 0 {
		buf.WriteString("Library is empty\n")
		return buf.Bytes()
	}

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LOCATION\tTYPE\tSIZE\tUPDATED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Location(), orDash(r.MIMEType()), shared.FormatBytes(r.Size()), r.UpdatedAt().Format(time.DateTime))
	}
	w.Flush()

	return buf.Bytes()
}

// EntriesToJSON renders cache entries as a JSON array
func EntriesToJSON(entries []*models.CacheEntry) ([]byte, error) {
	type view struct {
		Key      string `json:"key"`
		Title    string `json:"title"`
		Artist   string `json:"artist"`
		MIMEType string `json:"mime"`
		Length   int64  `json:"cached_bytes"`
	}

	out := make([]view, 0, len(entries))
	for _, e := range entries {
		out = append(out, view{Key: e.Key(), Title: e.Title(), Artist: e.Artist(), MIMEType: e.MIMEType(), Length: e.Length})
	}
	return shared.MarshalJSON(out, true)
}

// RecordsToJSON renders library records as a JSON array
func RecordsToJSON(records []*models.MediaRecord) ([]byte, error) {
	type view struct {
		ID        string    `json:"id"`
		Location  string    `json:"location"`
		MIMEType  string    `json:"mime"`
		Size      int64     `json:"size"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	out := make([]view, 0, len(records))
	for _, r := range records {
		out = append(out, view{ID: r.ID(), Location: r.Location(), MIMEType: r.MIMEType(), Size: r.Size(), UpdatedAt: r.UpdatedAt()})
	}
	return shared.MarshalJSON(out, true)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
