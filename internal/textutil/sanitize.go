package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxFileNameLength keeps sanitized segments under common filesystem limits
// with room for suffixes like " - Cover.jpg".
const maxFileNameLength = 200

// fallbackFileName is returned when sanitization leaves nothing usable.
const fallbackFileName = "Unknown"

// reservedNames are Windows device names that cannot be used as file names,
// with or without an extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFileName converts an arbitrary string into a single path segment
// that is safe on Linux, macOS, and Windows. Unsafe characters become
// underscores, leading/trailing dots and whitespace are stripped, Windows
// reserved device names gain a leading underscore, and the result is capped
// at 200 characters. The result is never empty.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20:
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	sanitized := strings.Trim(b.String(), ". \t")
	if runes := []rune(sanitized); len(runes) > maxFileNameLength {
		sanitized = strings.Trim(string(runes[:maxFileNameLength]), ". \t")
	}
	// Truncation can expose a reserved name, so the check runs after it.
	if isReserved(sanitized) {
		sanitized = "_" + sanitized
	}
	if sanitized == "" {
		return fallbackFileName
	}
	return sanitized
}

func isReserved(name string) bool {
	base := name
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	_, ok := reservedNames[strings.ToUpper(base)]
	return ok
}
