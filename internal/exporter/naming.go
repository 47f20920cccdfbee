package exporter

import (
	"mime"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/trackport/internal/models"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultExtension is used for unknown or missing MIME types.
	DefaultExtension = "m4a"

	// MaxNameLength caps the display name in runes, before the extension is appended.
	MaxNameLength = 200

	forbiddenChars = `\/:*?"<>|`
)

// extensions maps a MIME subtype to a file extension.
var extensions = map[string]string{
	"mp4":  "m4a",
	"webm": "webm",
	"ogg":  "ogg",
	"mpeg": "mp3",
	"opus": "opus",
	"flac": "flac",
}

// ExtensionFor returns the file extension for mimeType.
//
// Accepts a full MIME type ("audio/webm; codecs=opus") or a bare subtype ("webm").
func ExtensionFor(mimeType string) string {
	s := strings.ToLower(strings.TrimSpace(mimeType))
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		s = mt
	} else if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if _, sub, ok := strings.Cut(s, "/"); ok {
		s = sub
	}

	if ext, ok := extensions[s]; ok {
		return ext
	}
	return DefaultExtension
}

// SanitizeDisplayName builds "<artist> - <title>" with every forbidden character replaced by "_",
// trimmed and capped at [MaxNameLength] runes. A cap landing inside the separator does not leave trailing spaces.
func SanitizeDisplayName(artist, title string) string {
	name := norm.NFC.String(artist + " - " + title)

	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenChars, r) {
			return '_'
		}
		return r
	}, name)

	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = strings.TrimRightFunc(string([]rune(name)[:MaxNameLength]), unicode.IsSpace)
	}
	return name
}

// FileName returns the sanitized display name of req with its extension.
func FileName(req models.Request) string {
	return SanitizeDisplayName(req.Artist, req.Title) + "." + ExtensionFor(req.MIMEType)
}
