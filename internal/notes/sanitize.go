package notes

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxNameBytes = 120

var (
	// Characters illegal in file names on at least one supported platform
	illegalCharsRe = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1F\x7F]`)

	spaceRunRe = regexp.MustCompile(`\s+`)
)

// SafeName turns a note or folder title into a single path segment.
// Spaces are kept; illegal characters are removed.
func SafeName(title string) string {
	if !utf8.ValidString(title) {
		title = strings.ToValidUTF8(title, "")
	}

	clean := illegalCharsRe.ReplaceAllString(title, " ")
	clean = spaceRunRe.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)

	// Leading dots would hide the file; trailing dots are dropped on Windows.
	clean = strings.TrimLeft(clean, ". ")
	clean = strings.TrimRight(clean, ". ")

	clean = truncateUTF8(clean, maxNameBytes)
	clean = strings.TrimRight(clean, ". ")

	if clean == "" {
		return "Untitled"
	}
	return clean
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
