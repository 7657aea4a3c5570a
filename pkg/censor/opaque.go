package censor

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultHexMinLength is the shortest hexadecimal run treated as an identifier.
const DefaultHexMinLength = 12

var uuidPattern = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)

// opaqueFinder locates UUIDs and long hexadecimal runs, which are
// identifiers rather than words and are never scanned.
type opaqueFinder struct {
	hex *regexp.Regexp
}

func newOpaqueFinder(minLen int) opaqueFinder {
	if minLen < 2 {
		minLen = DefaultHexMinLength
	}
	// RE2 caps counted repetition at 1000
	if minLen > 1000 {
		minLen = 1000
	}
	return opaqueFinder{
		hex: regexp.MustCompile(fmt.Sprintf(`(?i)\b[0-9a-f]{%d,}\b`, minLen)),
	}
}

func (f opaqueFinder) find(text string) []span {
	var spans []span
	for _, loc := range uuidPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, span{start: loc[0], end: loc[1]})
	}
	for _, loc := range f.hex.FindAllStringIndex(text, -1) {
		// all-letter runs such as "deadbeef" or "facade" are words
		if !strings.ContainsAny(text[loc[0]:loc[1]], "0123456789") {
			continue
		}
		spans = append(spans, span{start: loc[0], end: loc[1]})
	}
	return spans
}

type span struct {
	start, end int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

func overlapsAny(s span, list []span) bool {
	for _, o := range list {
		if s.overlaps(o) {
			return true
		}
	}
	return false
}
