package util

import (
	"path"
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

// SanitizeForLog removes control characters and newlines from user content before logging.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return controlChars.ReplaceAllString(s, " ")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses everything outside [a-z0-9] into single
// hyphens. Used for document type directories in the media tree.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SafeFilename normalizes a browser-supplied filename to a bare base name
// capped at maxLen runes. Browsers sometimes send fake paths such as
// C:\fakepath\file.pdf.
func SafeFilename(name string, maxLen int) string {
	raw := strings.ReplaceAll(name, "\\", "/")
	base := path.Base(raw)
	if base == "" || base == "." || base == "/" {
		return "upload"
	}

	stem, ext := base, ""
	if i := strings.LastIndex(base, "."); i > 0 {
		stem = base[:i]
		ext = strings.ToLower(base[i:])
	}

	stem = strings.Join(strings.Fields(stem), " ")
	if stem == "" {
		stem = "file"
	}
	stem = controlChars.ReplaceAllString(stem, "")

	allowed := maxLen - len(ext)
	if allowed < 1 {
		allowed = 1
	}
	if len(stem) > allowed {
		stem = stem[:allowed]
	}
	return stem + ext
}
