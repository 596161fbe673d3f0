package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameRunes caps stored object names; the extension is kept when trimming.
const MaxFileNameRunes = 120

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes a user-influenced name safe for object keys and
// Content-Disposition headers. Separators become underscores, control characters
// and quotes are dropped, and traversal patterns are rejected.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case r == '"' || unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	if s == "" || s == "." {
		return "", ErrInvalidFileName
	}
	if utf8.RuneCountInString(s) > MaxFileNameRunes {
		ext := path.Ext(s)
		if utf8.RuneCountInString(ext) >= MaxFileNameRunes {
			ext = ""
		}
		base := []rune(strings.TrimSuffix(s, ext))
		s = string(base[:MaxFileNameRunes-utf8.RuneCountInString(ext)]) + ext
	}
	return s, nil
}
