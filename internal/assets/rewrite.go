package assets

import (
	"sort"
	"strings"
)

// Replacement pairs a Match with the relative path that replaces it.
// An empty Ref leaves the match's data URI in place.
type Replacement struct {
	Match Match
	Ref   string
}

// Rewrite substitutes each replacement's data URI span in text with its Ref.
// Text outside the replaced spans is copied unchanged. When spans overlap,
// the one starting later wins.
func Rewrite(text string, reps []Replacement) string {
	active := make([]Replacement, 0, len(reps))
	for _, r := range reps {
		if r.Ref == "" {
			continue
		}
		if r.Match.Start < 0 || r.Match.End > len(text) || r.Match.Start >= r.Match.End {
			continue
		}
		active = append(active, r)
	}
	if len(active) == 0 {
		return text
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Match.Start > active[j].Match.Start
	})

	// Drop spans that overlap one starting later.
	kept := active[:0]
	limit := len(text)
	for _, r := range active {
		if r.Match.End > limit {
			continue
		}
		kept = append(kept, r)
		limit = r.Match.Start
	}

	size := len(text)
	for _, r := range kept {
		size += len(r.Ref) - (r.Match.End - r.Match.Start)
	}

	var b strings.Builder
	b.Grow(size)
	pos := 0
	for i := len(kept) - 1; i >= 0; i-- {
		r := kept[i]
		b.WriteString(text[pos:r.Match.Start])
		b.WriteString(r.Ref)
		pos = r.Match.End
	}
	b.WriteString(text[pos:])

	return b.String()
}
