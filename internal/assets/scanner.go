package assets

import (
	"strings"
)

const (
	dataImageMarker = "data:image/"
	base64Delim     = ";base64,"
	spaceChars      = " \t\n\r\f"
)

// Match is one inline base64 image located in an HTML document.
// Start and End are byte offsets into the original text such that
// text[Start:End] is the full data: URI.
type Match struct {
	Start   int
	End     int
	MIME    string // "image/<subtype>", parameters dropped
	Payload string // raw payload, may contain line-wrapping whitespace
}

// Data returns the payload with whitespace removed, ready for decoding.
func (m Match) Data() string {
	return strings.Map(func(r rune) rune {
		if isSpace(byte(r)) {
			return -1
		}
		return r
	}, m.Payload)
}

// Scan returns every data:image/...;base64,... URI in text, in source order.
// Matches never overlap and matches with an empty payload are dropped.
func Scan(text string) []Match {
	var matches []Match

	pos := 0
	for pos < len(text) {
		idx := strings.Index(text[pos:], dataImageMarker)
		if idx == -1 {
			break
		}
		start := pos + idx

		m, ok := parseAt(text, start)
		if !ok {
			pos = start + len(dataImageMarker)
			continue
		}
		matches = append(matches, m)
		pos = m.End
	}

	return matches
}

// parseAt parses a data URI whose marker begins at start.
func parseAt(text string, start int) (Match, bool) {
	headStart := start + len(dataImageMarker)

	// The MIME section ends at ;base64, and must not cross an attribute
	// boundary on the way there.
	head := -1
	for i := headStart; i < len(text); i++ {
		c := text[i]
		if c == ';' && strings.HasPrefix(text[i:], base64Delim) {
			head = i
			break
		}
		if c == '"' || c == '\'' || c == '<' || c == '>' || c == ',' || isSpace(c) {
			return Match{}, false
		}
	}
	if head == -1 {
		return Match{}, false
	}

	subtype := text[headStart:head]
	if idx := strings.IndexByte(subtype, ';'); idx != -1 {
		subtype = subtype[:idx]
	}
	if !validSubtype(subtype) {
		return Match{}, false
	}

	// Whitespace may only wrap a payload inside a quoted attribute value.
	var quote byte
	if start > 0 && (text[start-1] == '"' || text[start-1] == '\'') {
		quote = text[start-1]
	}

	payloadStart := head + len(base64Delim)
	end := payloadStart // one past the last payload character
	padding := false
	wrapEnd := -1 // whitespace before this offset is a known line wrap
scan:
	for i := payloadStart; i < len(text); i++ {
		c := text[i]
		switch {
		case isSpace(c):
			if i < wrapEnd {
				continue
			}
			if quote == 0 {
				break scan
			}
			if wrapEnd = wrapLimit(text, i, quote); wrapEnd == -1 {
				break scan
			}
		case c == '=':
			padding = true
			end = i + 1
		case !padding && isBase64Char(c):
			end = i + 1
		default:
			break scan
		}
	}

	if end == payloadStart {
		return Match{}, false
	}

	return Match{
		Start:   start,
		End:     end,
		MIME:    "image/" + strings.ToLower(subtype),
		Payload: text[payloadStart:end],
	}, true
}

// wrapLimit returns the offset just past the last base64 token between the
// whitespace at i and the closing quote (or a srcset comma), or -1 when that
// whitespace does not wrap the payload. A trailing srcset descriptor such as
// "2x" or "480w" is not payload.
func wrapLimit(text string, i int, quote byte) int {
	j := i
	for j < len(text) && text[j] != quote && text[j] != ',' {
		j++
	}
	if j == len(text) {
		return -1
	}

	segment := strings.TrimRight(text[i:j], spaceChars)
	tokens := strings.Fields(segment)
	if n := len(tokens); n > 0 && isDescriptor(tokens[n-1]) {
		segment = strings.TrimRight(strings.TrimSuffix(segment, tokens[n-1]), spaceChars)
		tokens = tokens[:n-1]
	}
	if len(tokens) == 0 {
		return -1
	}
	for _, tok := range tokens {
		for k := 0; k < len(tok); k++ {
			if !isBase64Char(tok[k]) && tok[k] != '=' {
				return -1
			}
		}
	}
	return i + len(segment)
}

// isDescriptor matches srcset width and density descriptors: 480w, 1x, 1.5x.
func isDescriptor(tok string) bool {
	n := len(tok)
	if n < 2 || (tok[n-1] != 'x' && tok[n-1] != 'w') {
		return false
	}
	digits, dot := 0, false
	for k := 0; k < n-1; k++ {
		switch c := tok[k]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot && tok[n-1] == 'x':
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

func validSubtype(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isAlnum(c) && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func isBase64Char(c byte) bool {
	return isAlnum(c) || c == '+' || c == '/' || c == '-' || c == '_'
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
